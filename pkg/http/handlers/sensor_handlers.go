package handlers

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
	goji "goji.io"
	"goji.io/pat"
)

// RegisterSensorHandlers registers handlers for ingesting and reading back
// sensor telemetry.
func RegisterSensorHandlers(mux *goji.Mux, ingestor Ingestor, resolver Resolver, scheduler Scheduler) {
	mux.Handle(pat.Post("/sensor"), Handler{env: &Env{ingestor: ingestor}, handler: createReadingHandler})
	mux.Handle(pat.Get("/sensor/latest"), Handler{env: &Env{resolver: resolver}, handler: latestReadingHandler})
	mux.Handle(pat.Get("/sensor/status"), Handler{env: &Env{resolver: resolver}, handler: sensorStatusHandler})
	mux.Handle(pat.Get("/sensor/schedule"), Handler{env: &Env{scheduler: scheduler}, handler: scheduleHandler})
}

// latestResponse is used when rendering a resolved reading back to the
// client.
type latestResponse struct {
	Temperature       float64         `json:"temperature"`
	WaterLevel        float64         `json:"waterLevel"`
	WaterLevelPercent float64         `json:"waterLevelPercent"`
	FanSpeed          json.RawMessage `json:"fanSpeed,omitempty"`
	MistOn            bool            `json:"mistOn"`
	LedOn             bool            `json:"ledOn"`
	CreatedAt         string          `json:"createdAt"`
}

// createReadingHandler appends a new reading to the store. Payloads are
// accepted leniently as devices in the field send numbers as strings and
// omit fields freely; only undecodable JSON is rejected.
func createReadingHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to read incoming request body"),
		}
	}

	var raw telemetry.RawReading
	err = json.Unmarshal(b, &raw)
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  errors.Wrap(err, "failed to parse incoming request body"),
		}
	}

	_, err = env.ingestor.Ingest(ctx, &raw)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to save reading"),
		}
	}

	b, err = json.Marshal(struct {
		Success bool `json:"success"`
	}{
		Success: true,
	})
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to marshal response JSON"),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b)

	return nil
}

// latestReadingHandler returns the most recent structurally valid reading
// however old it may be. When no valid reading exists we return a 404 with
// explicitly null sensor fields so clients can render an empty dashboard
// without special casing.
func latestReadingHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	reading, err := env.resolver.Latest(ctx)
	if err != nil {
		cause := errors.Cause(err)
		if cause == telemetry.ErrNoValidReading || cause == telemetry.ErrNoReadings {
			// a sensor that never reported reads differently on the dashboard
			// to one whose whole history is malformed
			message := "No valid data found"
			if cause == telemetry.ErrNoReadings {
				message = "No data available"
			}

			b, innerErr := json.Marshal(struct {
				Temperature       *float64 `json:"temperature"`
				WaterLevel        *float64 `json:"waterLevel"`
				WaterLevelPercent *float64 `json:"waterLevelPercent"`
				Message           string   `json:"message"`
			}{
				Message: message,
			})
			if innerErr != nil {
				return &HTTPError{
					Code: http.StatusInternalServerError,
					Err:  errors.Wrap(innerErr, "failed to marshal response JSON"),
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write(b)

			return nil
		}

		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to resolve latest reading"),
		}
	}

	resp := latestResponse{
		Temperature:       reading.Temperature,
		WaterLevel:        reading.WaterLevelCm.Float64,
		WaterLevelPercent: reading.WaterLevelPercent,
		MistOn:            reading.MistOn,
		LedOn:             reading.LedOn,
		CreatedAt:         reading.CreatedAt.Time.Format(time.RFC3339),
	}

	if len(reading.FanSpeed) > 0 {
		resp.FanSpeed = json.RawMessage(reading.FanSpeed)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to marshal response JSON"),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b)

	return nil
}

// sensorStatusHandler reports strict device liveness derived from the age
// and shape of the most recent reading.
func sensorStatusHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	status, err := env.resolver.Status(ctx)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to resolve sensor status"),
		}
	}

	b, err := json.Marshal(struct {
		Status string `json:"status"`
	}{
		Status: status,
	})
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to marshal response JSON"),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b)

	return nil
}

// scheduleHandler returns the fixed eight point daily aggregate. The
// aggregator degrades per point rather than failing, so this handler always
// returns a 200.
func scheduleHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	points := env.scheduler.Schedule(ctx)

	b, err := json.Marshal(points)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to marshal response JSON"),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b)

	return nil
}
