package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/guregu/null"
	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/logger"
)

// MistingState is the single logical misting document for a deployment.
type MistingState struct {
	ID        int16     `db:"id"`
	MistOn    bool      `db:"mist_on"`
	Mode      string    `db:"mode"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MistingUpdate carries a partial update for the misting state. Invalid
// fields are left untouched on the stored row, matching the merge semantics
// of the original document store.
type MistingUpdate struct {
	MistOn null.Bool
	Mode   null.String
}

// GetMistingState loads the misting row. Callers can unwrap the returned
// error to check for sql.ErrNoRows when no state has been written yet.
func (d *DB) GetMistingState(ctx context.Context) (*MistingState, error) {
	log := logger.FromContext(ctx)

	if d.verbose {
		log.Log("msg", "loading misting state")
	}

	sql := `SELECT * FROM misting_state WHERE id = 1`

	var state MistingState

	err := d.DB.GetContext(ctx, &state, sql)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load misting state from DB")
	}

	return &state, nil
}

// UpsertMistingState merges the given update into the misting row, creating
// it if absent. Only valid fields in the update replace stored values.
func (d *DB) UpsertMistingState(ctx context.Context, update *MistingUpdate) (*MistingState, error) {
	log := logger.FromContext(ctx)

	if d.verbose {
		log.Log(
			"msg", "upserting misting state",
			"mistOn", update.MistOn.ValueOrZero(),
			"mode", update.Mode.ValueOrZero(),
		)
	}

	query := `INSERT INTO misting_state (id, mist_on, mode, updated_at)
		VALUES (1, COALESCE($1, FALSE), COALESCE($2, 'auto'), now())
		ON CONFLICT (id)
		DO UPDATE SET
			mist_on = COALESCE($1, misting_state.mist_on),
			mode = COALESCE($2, misting_state.mode),
			updated_at = now()
		RETURNING *`

	var state MistingState

	err := d.DB.GetContext(ctx, &state, query, boolArg(update.MistOn), stringArg(update.Mode))
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert misting state")
	}

	return &state, nil
}

// boolArg converts a null.Bool to a driver-level nullable value.
func boolArg(b null.Bool) sql.NullBool {
	return sql.NullBool{Bool: b.Bool, Valid: b.Valid}
}

// stringArg converts a null.String to a driver-level nullable value.
func stringArg(s null.String) sql.NullString {
	return sql.NullString{String: s.String, Valid: s.Valid}
}
