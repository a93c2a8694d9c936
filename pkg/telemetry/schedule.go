package telemetry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/postgres"
)

// scheduleHours are the fixed hour-of-day boundaries we aggregate over.
var scheduleHours = []int{0, 3, 6, 9, 12, 15, 18, 21}

// windowLength is how long after each boundary we look for a reading.
const windowLength = 30 * time.Minute

// labelFormat renders a boundary as a short clock time, e.g. "6:00 AM".
const labelFormat = "3:04 PM"

// SchedulePoint is one aggregate point for the day's chart. Derived on every
// request, never stored.
type SchedulePoint struct {
	Label             string  `json:"label"`
	Temperature       float64 `json:"temperature"`
	WaterLevelPercent float64 `json:"waterLevelPercent"`
}

// WindowSource is the slice of the store the aggregator needs.
type WindowSource interface {
	FirstReadingBetween(ctx context.Context, start, end time.Time) (*postgres.Reading, error)
}

// Aggregator computes the fixed set of schedule points for the current day.
type Aggregator struct {
	store WindowSource
	clock clockwork.Clock
}

// NewAggregator returns an Aggregator reading from the given store.
func NewAggregator(store WindowSource, clock clockwork.Clock) *Aggregator {
	return &Aggregator{
		store: store,
		clock: clock,
	}
}

// Schedule returns exactly one point per boundary hour of the current local
// day, in boundary order. A boundary whose window holds no reading, or whose
// query fails, yields a zero-filled point; the call as a whole never fails.
func (a *Aggregator) Schedule(ctx context.Context) []SchedulePoint {
	log := logger.FromContext(ctx)

	now := a.clock.Now()
	points := make([]SchedulePoint, 0, len(scheduleHours))

	for _, hour := range scheduleHours {
		start := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		end := start.Add(windowLength)

		point := SchedulePoint{Label: start.Format(labelFormat)}

		reading, err := a.store.FirstReadingBetween(ctx, start, end)
		if err != nil {
			// degrade this boundary only, the rest of the aggregate still returns
			log.Log("msg", "no reading for schedule window", "boundary", point.Label, "err", err.Error())
		} else {
			point.Temperature = reading.Temperature
			point.WaterLevelPercent = reading.WaterLevelPercent
		}

		points = append(points, point)
	}

	return points
}
