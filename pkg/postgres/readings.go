package postgres

import (
	"context"
	"time"

	sq "github.com/elgris/sqrl"
	"github.com/guregu/null"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/logger"
)

// Reading is our representation of a single sensor reading row. Rows are
// append-only: once written they are never updated or deleted by this
// service. Legacy rows written by pre-migration firmware carry their original
// free-text stamp in RawCreatedAt and a null CreatedAt; those rows must be
// skipped, never parsed.
type Reading struct {
	ID                int64          `db:"id"`
	Temperature       float64        `db:"temperature"`
	WaterLevelCm      null.Float     `db:"water_level_cm"`
	WaterLevelPercent float64        `db:"water_level_percent"`
	FanSpeed          types.JSONText `db:"fan_speed"`
	MistOn            bool           `db:"mist_on"`
	LedOn             bool           `db:"led_on"`
	CreatedAt         null.Time      `db:"created_at"`
	RawCreatedAt      null.String    `db:"raw_created_at"`
}

// InsertReading appends a single reading. The created_at stamp is assigned by
// the database at insert time; we never persist a client-supplied timestamp.
func (d *DB) InsertReading(ctx context.Context, reading *Reading) error {
	log := logger.FromContext(ctx)

	if d.verbose {
		log.Log(
			"msg", "inserting sensor reading",
			"temperature", reading.Temperature,
			"waterLevelPercent", reading.WaterLevelPercent,
		)
	}

	sql := `INSERT INTO sensor_readings
		(temperature, water_level_cm, water_level_percent, fan_speed, mist_on, led_on, created_at)
		VALUES (:temperature, :water_level_cm, :water_level_percent, :fan_speed, :mist_on, :led_on, now())`

	sql, args, err := d.DB.BindNamed(sql, reading)
	if err != nil {
		return errors.Wrap(err, "failed to bind named reading query")
	}

	_, err = d.DB.ExecContext(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, "failed to execute reading insertion")
	}

	return nil
}

// RecentReadings returns up to limit readings in reverse append order. The
// scan is ordered by id rather than created_at so that legacy rows with a
// null timestamp still appear in their true arrival position and can be
// skipped explicitly by the caller.
func (d *DB) RecentReadings(ctx context.Context, limit int) ([]Reading, error) {
	log := logger.FromContext(ctx)

	if d.verbose {
		log.Log("msg", "loading recent readings", "limit", limit)
	}

	sql := `SELECT * FROM sensor_readings ORDER BY id DESC LIMIT $1`

	readings := []Reading{}

	err := d.DB.SelectContext(ctx, &readings, sql, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent readings from DB")
	}

	return readings, nil
}

// FirstReadingBetween returns the earliest reading whose created_at falls
// within the half-open window [start, end], or sql.ErrNoRows wrapped if the
// window is empty. Legacy rows are excluded by the not-null predicate.
func (d *DB) FirstReadingBetween(ctx context.Context, start, end time.Time) (*Reading, error) {
	log := logger.FromContext(ctx)

	if d.verbose {
		log.Log(
			"msg", "loading first reading in window",
			"start", start,
			"end", end,
		)
	}

	builder := sq.Select("*").
		From("sensor_readings").
		Where("created_at IS NOT NULL").
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.LtOrEq{"created_at": end}).
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(sq.Dollar)

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build window query")
	}

	var reading Reading

	err = d.DB.GetContext(ctx, &reading, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load reading for window from DB")
	}

	return &reading, nil
}
