package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
)

type fakeWindowSource struct {
	// readings keyed by window start hour
	readings map[int]*postgres.Reading
	err      error
}

func (f *fakeWindowSource) FirstReadingBetween(ctx context.Context, start, end time.Time) (*postgres.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	if reading, ok := f.readings[start.Hour()]; ok {
		return reading, nil
	}
	return nil, errors.New("sql: no rows in result set")
}

var scheduleLabels = []string{
	"12:00 AM", "3:00 AM", "6:00 AM", "9:00 AM",
	"12:00 PM", "3:00 PM", "6:00 PM", "9:00 PM",
}

func TestScheduleAlwaysReturnsEightPoints(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 9, 12, 14, 30, 0, 0, time.UTC))

	aggregator := telemetry.NewAggregator(&fakeWindowSource{}, clock)

	points := aggregator.Schedule(context.Background())
	assert.Len(t, points, 8)

	for i, point := range points {
		assert.Equal(t, scheduleLabels[i], point.Label)
		assert.Equal(t, 0.0, point.Temperature)
		assert.Equal(t, 0.0, point.WaterLevelPercent)
	}
}

func TestSchedulePopulatesFoundWindows(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 9, 12, 14, 30, 0, 0, time.UTC))

	store := &fakeWindowSource{
		readings: map[int]*postgres.Reading{
			6:  {Temperature: 27.5, WaterLevelPercent: 80},
			12: {Temperature: 33.0, WaterLevelPercent: 72},
		},
	}

	aggregator := telemetry.NewAggregator(store, clock)

	points := aggregator.Schedule(context.Background())
	assert.Len(t, points, 8)

	assert.Equal(t, "6:00 AM", points[2].Label)
	assert.Equal(t, 27.5, points[2].Temperature)
	assert.Equal(t, 80.0, points[2].WaterLevelPercent)

	assert.Equal(t, "12:00 PM", points[4].Label)
	assert.Equal(t, 33.0, points[4].Temperature)

	// untouched boundaries stay zero-filled
	assert.Equal(t, 0.0, points[0].Temperature)
	assert.Equal(t, 0.0, points[7].Temperature)
}

func TestScheduleDegradesOnQueryError(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 9, 12, 14, 30, 0, 0, time.UTC))

	store := &fakeWindowSource{err: errors.New("connection refused")}
	aggregator := telemetry.NewAggregator(store, clock)

	points := aggregator.Schedule(context.Background())
	assert.Len(t, points, 8)

	for _, point := range points {
		assert.Equal(t, 0.0, point.Temperature)
		assert.Equal(t, 0.0, point.WaterLevelPercent)
	}
}
