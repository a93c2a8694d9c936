package telemetry

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/postgres"
)

const (
	// scanLimit caps how far back the resolver reads when hunting for a
	// structurally valid reading. Sized to ride out a run of legacy rows
	// whose timestamps were written as free text.
	scanLimit = 50

	// StaleAfterSeconds is the age beyond which an otherwise valid reading is
	// treated as a disconnected sensor.
	StaleAfterSeconds = 15
)

// Status values reported by the connectivity check.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// ErrNoValidReading is returned when none of the scanned readings carries a
// structurally valid timestamp.
const ErrNoValidReading = Error("no valid sensor data found")

// ErrNoReadings is returned when the history is empty, i.e. the sensor has
// never reported at all.
const ErrNoReadings = Error("no sensor data available")

// Error is a constant error type for sentinel values.
type Error string

// Error implements the error interface.
func (e Error) Error() string { return string(e) }

// ReadingScanner is the slice of the store the resolver needs.
type ReadingScanner interface {
	RecentReadings(ctx context.Context, limit int) ([]postgres.Reading, error)
}

// Resolver finds the most recent structurally valid reading in a history
// that may contain malformed legacy rows, and derives connectivity from it.
type Resolver struct {
	store ReadingScanner
	clock clockwork.Clock
}

// NewResolver returns a Resolver reading from the given store.
func NewResolver(store ReadingScanner, clock clockwork.Clock) *Resolver {
	return &Resolver{
		store: store,
		clock: clock,
	}
}

// Latest returns the most recent reading with a valid timestamp, skipping
// legacy rows. This is the tolerant "best known value" check: age is not
// considered. Returns ErrNoReadings on an empty history, or ErrNoValidReading
// when the scan window holds only legacy rows.
func (r *Resolver) Latest(ctx context.Context) (*postgres.Reading, error) {
	log := logger.FromContext(ctx)

	readings, err := r.store.RecentReadings(ctx, scanLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan recent readings")
	}

	if len(readings) == 0 {
		return nil, ErrNoReadings
	}

	for i := range readings {
		if readings[i].CreatedAt.Valid {
			return &readings[i], nil
		}
	}

	log.Log("msg", "no valid reading in scan window", "scanned", len(readings))

	return nil, ErrNoValidReading
}

// Status reports sensor connectivity. This is the strict "is it live right
// now" check: the latest valid reading must also carry a non-null water level
// and be no older than the staleness threshold.
func (r *Resolver) Status(ctx context.Context) (string, error) {
	reading, err := r.Latest(ctx)
	if err != nil {
		if err == ErrNoValidReading || err == ErrNoReadings {
			return StatusDisconnected, nil
		}
		return StatusDisconnected, err
	}

	if !reading.WaterLevelCm.Valid {
		return StatusDisconnected, nil
	}

	age := r.clock.Now().Sub(reading.CreatedAt.Time)
	if age.Seconds() > StaleAfterSeconds {
		return StatusDisconnected, nil
	}

	return StatusConnected, nil
}
