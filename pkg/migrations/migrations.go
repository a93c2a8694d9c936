package migrations

import "fmt"

// assets is a hand-maintained registry of our SQL migrations, exposed via the
// Asset/AssetNames functions that the go_bindata migrate source consumes.
// When adding a migration via `pems migrate new`, the generated files under
// pkg/migrations/sql must be mirrored here.
var assets = map[string][]byte{
	"20240912083012_create_sensor_readings.up.sql": []byte(`
CREATE TABLE IF NOT EXISTS sensor_readings (
	id BIGSERIAL PRIMARY KEY,
	temperature DOUBLE PRECISION NOT NULL DEFAULT 0,
	water_level_cm DOUBLE PRECISION,
	water_level_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	fan_speed JSONB NOT NULL DEFAULT '{}',
	mist_on BOOLEAN NOT NULL DEFAULT FALSE,
	led_on BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ DEFAULT now(),
	raw_created_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_sensor_readings_created_at
	ON sensor_readings (created_at DESC NULLS LAST);
`),
	"20240912083012_create_sensor_readings.down.sql": []byte(`
DROP TABLE IF EXISTS sensor_readings;
`),
	"20240912091427_create_fan_states.up.sql": []byte(`
CREATE TABLE IF NOT EXISTS fan_states (
	id BIGSERIAL PRIMARY KEY,
	device_type TEXT NOT NULL,
	speed TEXT NOT NULL,
	mode TEXT NOT NULL,
	rpm INTEGER NOT NULL DEFAULT 0,
	power DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_fan_states_device_type_updated_at
	ON fan_states (device_type, updated_at DESC, id DESC);
`),
	"20240912091427_create_fan_states.down.sql": []byte(`
DROP TABLE IF EXISTS fan_states;
`),
	"20240912094150_create_misting_state.up.sql": []byte(`
CREATE TABLE IF NOT EXISTS misting_state (
	id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	mist_on BOOLEAN NOT NULL DEFAULT FALSE,
	mode TEXT NOT NULL DEFAULT 'auto',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`),
	"20240912094150_create_misting_state.down.sql": []byte(`
DROP TABLE IF EXISTS misting_state;
`),
}

// AssetNames returns the names of all registered migration assets.
func AssetNames() []string {
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	return names
}

// Asset returns the content of a named migration asset, or an error if no
// asset with that name is registered.
func Asset(name string) ([]byte, error) {
	if b, ok := assets[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("asset not found: %s", name)
}
