package postgres

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/logger"
)

// FanState is a single row in the append-only fan command log. The current
// status of a device is simply the most recent row carrying its device_type;
// older rows are retained as the audit history of every command issued.
type FanState struct {
	ID         int64     `db:"id"`
	DeviceType string    `db:"device_type"`
	Speed      string    `db:"speed"`
	Mode       string    `db:"mode"`
	RPM        int       `db:"rpm"`
	Power      float64   `db:"power"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// InsertFanState appends a new fan state record. There is no update path:
// state changes are recorded as new rows.
func (d *DB) InsertFanState(ctx context.Context, state *FanState) error {
	log := logger.FromContext(ctx)

	if d.verbose {
		log.Log(
			"msg", "inserting fan state",
			"deviceType", state.DeviceType,
			"speed", state.Speed,
			"mode", state.Mode,
		)
	}

	sql := `INSERT INTO fan_states
		(device_type, speed, mode, rpm, power)
		VALUES (:device_type, :speed, :mode, :rpm, :power)`

	sql, args, err := d.DB.BindNamed(sql, state)
	if err != nil {
		return errors.Wrap(err, "failed to bind named fan state query")
	}

	_, err = d.DB.ExecContext(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, "failed to execute fan state insertion")
	}

	return nil
}

// CurrentFanStates returns the most recent state per device type, i.e. the
// last-write-wins view over the append-only log.
func (d *DB) CurrentFanStates(ctx context.Context) ([]FanState, error) {
	log := logger.FromContext(ctx)

	if d.verbose {
		log.Log("msg", "loading current fan states")
	}

	sql := `SELECT DISTINCT ON (device_type) *
		FROM fan_states
		ORDER BY device_type, updated_at DESC, id DESC`

	states := []FanState{}

	err := d.DB.SelectContext(ctx, &states, sql)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load fan states from DB")
	}

	return states, nil
}
