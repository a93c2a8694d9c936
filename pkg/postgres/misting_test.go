package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"github.com/guregu/null"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/postgres/helper"
)

type MistingSuite struct {
	suite.Suite
	db     *postgres.DB
	logger kitlog.Logger
}

func (s *MistingSuite) SetupTest() {
	logger := kitlog.NewNopLogger()
	connStr := os.Getenv("PEMS_DATABASE_URL")

	s.db = helper.PrepareDB(s.T(), connStr, logger)
	s.logger = logger
}

func (s *MistingSuite) TearDownTest() {
	helper.CleanDB(s.T(), s.db)
}

func (s *MistingSuite) TestGetMistingStateNoRows() {
	ctx := logger.ToContext(context.Background(), s.logger)

	_, err := s.db.GetMistingState(ctx)
	assert.Equal(s.T(), sql.ErrNoRows, errors.Cause(err))
}

func (s *MistingSuite) TestUpsertMergesPartialUpdates() {
	ctx := logger.ToContext(context.Background(), s.logger)

	state, err := s.db.UpsertMistingState(ctx, &postgres.MistingUpdate{
		MistOn: null.BoolFrom(true),
		Mode:   null.StringFrom("manual"),
	})
	assert.Nil(s.T(), err)
	assert.True(s.T(), state.MistOn)
	assert.Equal(s.T(), "manual", state.Mode)

	// partial update: only mist_on present, mode must survive
	state, err = s.db.UpsertMistingState(ctx, &postgres.MistingUpdate{
		MistOn: null.BoolFrom(false),
	})
	assert.Nil(s.T(), err)
	assert.False(s.T(), state.MistOn)
	assert.Equal(s.T(), "manual", state.Mode)

	state, err = s.db.GetMistingState(ctx)
	assert.Nil(s.T(), err)
	assert.False(s.T(), state.MistOn)
	assert.Equal(s.T(), "manual", state.Mode)
}

func TestMistingSuite(t *testing.T) {
	suite.Run(t, new(MistingSuite))
}
