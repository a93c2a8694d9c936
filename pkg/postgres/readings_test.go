package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/guregu/null"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/postgres/helper"
)

type ReadingsSuite struct {
	suite.Suite
	db     *postgres.DB
	logger kitlog.Logger
}

func (s *ReadingsSuite) SetupTest() {
	logger := kitlog.NewNopLogger()
	connStr := os.Getenv("PEMS_DATABASE_URL")

	s.db = helper.PrepareDB(s.T(), connStr, logger)
	s.logger = logger
}

func (s *ReadingsSuite) TearDownTest() {
	helper.CleanDB(s.T(), s.db)
}

func (s *ReadingsSuite) TestInsertAndRecentReadings() {
	ctx := logger.ToContext(context.Background(), s.logger)

	err := s.db.InsertReading(ctx, &postgres.Reading{
		Temperature:       31.5,
		WaterLevelCm:      null.FloatFrom(25),
		WaterLevelPercent: 50,
		FanSpeed:          types.JSONText(`{"exhaust":170}`),
		MistOn:            true,
	})
	assert.Nil(s.T(), err)

	err = s.db.InsertReading(ctx, &postgres.Reading{
		Temperature:       32.1,
		WaterLevelCm:      null.FloatFrom(24),
		WaterLevelPercent: 48,
		FanSpeed:          types.JSONText(`{}`),
	})
	assert.Nil(s.T(), err)

	readings, err := s.db.RecentReadings(ctx, 50)
	assert.Nil(s.T(), err)
	assert.Len(s.T(), readings, 2)

	// reverse append order
	assert.Equal(s.T(), 32.1, readings[0].Temperature)
	assert.Equal(s.T(), 31.5, readings[1].Temperature)
	assert.True(s.T(), readings[0].CreatedAt.Valid)
	assert.True(s.T(), readings[1].MistOn)
}

func (s *ReadingsSuite) TestRecentReadingsIncludesLegacyRows() {
	ctx := logger.ToContext(context.Background(), s.logger)

	_, err := s.db.DB.Exec(
		`INSERT INTO sensor_readings (temperature, water_level_percent, created_at, raw_created_at)
		 VALUES ($1, $2, NULL, $3)`,
		30.0, 40.0, "11/3/2024, 2:15:01 PM",
	)
	assert.Nil(s.T(), err)

	readings, err := s.db.RecentReadings(ctx, 50)
	assert.Nil(s.T(), err)
	assert.Len(s.T(), readings, 1)

	// the row comes back, but is flagged as structurally invalid
	assert.False(s.T(), readings[0].CreatedAt.Valid)
	assert.Equal(s.T(), "11/3/2024, 2:15:01 PM", readings[0].RawCreatedAt.String)
}

func (s *ReadingsSuite) TestFirstReadingBetween() {
	ctx := logger.ToContext(context.Background(), s.logger)

	_, err := s.db.DB.Exec(
		`INSERT INTO sensor_readings (temperature, water_level_percent, created_at)
		 VALUES (28.0, 60.0, $1), (29.0, 58.0, $2)`,
		time.Date(2024, 9, 12, 6, 5, 0, 0, time.UTC),
		time.Date(2024, 9, 12, 6, 20, 0, 0, time.UTC),
	)
	assert.Nil(s.T(), err)

	start := time.Date(2024, 9, 12, 6, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	reading, err := s.db.FirstReadingBetween(ctx, start, end)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), 28.0, reading.Temperature)

	// empty window
	start = time.Date(2024, 9, 12, 9, 0, 0, 0, time.UTC)
	_, err = s.db.FirstReadingBetween(ctx, start, start.Add(30*time.Minute))
	assert.NotNil(s.T(), err)
}

func TestReadingsSuite(t *testing.T) {
	suite.Run(t, new(ReadingsSuite))
}
