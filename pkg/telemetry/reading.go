package telemetry

import (
	"context"
	"encoding/json"

	"github.com/guregu/null"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/postgres"
)

// DefaultTankHeightCm is the fallback tank height used to derive the water
// level percentage when no height is configured.
const DefaultTankHeightCm = 50.0

// RawReading is the inbound sensor payload as posted by device firmware. The
// numeric fields arrive as whatever the firmware managed to serialize, so we
// deliberately accept anything and coerce rather than reject: a malformed
// field must never block ingestion of the rest of the reading.
type RawReading struct {
	Temperature interface{}     `json:"temperature"`
	WaterLevel  interface{}     `json:"waterLevel"`
	FanSpeed    json.RawMessage `json:"fanSpeed"`
	MistOn      interface{}     `json:"mistOn"`
	LedOn       interface{}     `json:"ledOn"`
}

// Ingestor normalizes raw payloads and appends them to the store.
type Ingestor struct {
	store        ReadingWriter
	tankHeightCm float64
}

// ReadingWriter is the slice of the store the ingestor needs.
type ReadingWriter interface {
	InsertReading(ctx context.Context, reading *postgres.Reading) error
}

// NewIngestor returns an Ingestor writing to the given store. A zero or
// negative tank height falls back to the default.
func NewIngestor(store ReadingWriter, tankHeightCm float64) *Ingestor {
	if tankHeightCm <= 0 {
		tankHeightCm = DefaultTankHeightCm
	}

	return &Ingestor{
		store:        store,
		tankHeightCm: tankHeightCm,
	}
}

// Ingest normalizes the given raw payload and appends a single immutable
// reading. The created_at stamp is assigned by the store at write time.
func (i *Ingestor) Ingest(ctx context.Context, raw *RawReading) (*postgres.Reading, error) {
	log := logger.FromContext(ctx)

	// a float sensor cannot read below its probe, so negative levels are noise
	waterLevelCm := coerceFloat(raw.WaterLevel)
	if waterLevelCm < 0 {
		waterLevelCm = 0
	}

	fanSpeed := types.JSONText(`{}`)
	if len(raw.FanSpeed) > 0 {
		fanSpeed = types.JSONText(raw.FanSpeed)
	}

	reading := &postgres.Reading{
		Temperature:       coerceFloat(raw.Temperature),
		WaterLevelCm:      null.FloatFrom(waterLevelCm),
		WaterLevelPercent: Percent(waterLevelCm, i.tankHeightCm),
		FanSpeed:          fanSpeed,
		MistOn:            coerceBool(raw.MistOn),
		LedOn:             coerceBool(raw.LedOn),
	}

	err := i.store.InsertReading(ctx, reading)
	if err != nil {
		return nil, errors.Wrap(err, "failed to append sensor reading")
	}

	log.Log(
		"msg", "sensor reading saved",
		"temperature", reading.Temperature,
		"waterLevelPercent", reading.WaterLevelPercent,
	)

	return reading, nil
}

// Percent converts a raw water level in cm into a percentage of the tank
// height, clamped to [0, 100].
func Percent(waterLevelCm, tankHeightCm float64) float64 {
	if tankHeightCm <= 0 {
		tankHeightCm = DefaultTankHeightCm
	}

	percent := waterLevelCm / tankHeightCm * 100

	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// coerceFloat converts an arbitrary JSON value into a float64, 0 for anything
// that is not numeric. Firmware has been observed sending numbers as quoted
// strings after a reset, so we also accept those. Sign is preserved:
// temperatures below zero are real values.
func coerceFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		var f float64
		if err := json.Unmarshal([]byte(val), &f); err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// coerceBool converts an arbitrary JSON value into a bool, accepting either a
// true boolean or the string "true".
func coerceBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	default:
		return false
	}
}
