package postgres_test

import (
	"context"
	"os"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/postgres/helper"
)

type FansSuite struct {
	suite.Suite
	db     *postgres.DB
	logger kitlog.Logger
}

func (s *FansSuite) SetupTest() {
	logger := kitlog.NewNopLogger()
	connStr := os.Getenv("PEMS_DATABASE_URL")

	s.db = helper.PrepareDB(s.T(), connStr, logger)
	s.logger = logger
}

func (s *FansSuite) TearDownTest() {
	helper.CleanDB(s.T(), s.db)
}

func (s *FansSuite) TestCurrentFanStatesIsLastWritePerDevice() {
	ctx := logger.ToContext(context.Background(), s.logger)

	states := []postgres.FanState{
		{DeviceType: "exhaust", Speed: "slow", Mode: "auto", RPM: 400, Power: 1.1},
		{DeviceType: "intake", Speed: "off", Mode: "auto"},
		{DeviceType: "exhaust", Speed: "fast", Mode: "manual", RPM: 1800, Power: 6.4},
	}

	for i := range states {
		err := s.db.InsertFanState(ctx, &states[i])
		assert.Nil(s.T(), err)
	}

	current, err := s.db.CurrentFanStates(ctx)
	assert.Nil(s.T(), err)
	assert.Len(s.T(), current, 2)

	byType := map[string]postgres.FanState{}
	for _, st := range current {
		byType[st.DeviceType] = st
	}

	assert.Equal(s.T(), "fast", byType["exhaust"].Speed)
	assert.Equal(s.T(), "manual", byType["exhaust"].Mode)
	assert.Equal(s.T(), 1800, byType["exhaust"].RPM)
	assert.Equal(s.T(), "off", byType["intake"].Speed)

	// all three rows remain in the log
	var count int
	err = s.db.DB.Get(&count, `SELECT COUNT(*) FROM fan_states`)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), 3, count)
}

func TestFansSuite(t *testing.T) {
	suite.Run(t, new(FansSuite))
}
