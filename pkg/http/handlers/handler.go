package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Ewixxx/PEMS/pkg/device"
	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/mailer"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
)

// DataStore is the interface we expect for reading actuator state back out
// of the store for the status endpoints.
type DataStore interface {
	// CurrentFanStates returns the most recent state per fan device type.
	CurrentFanStates(ctx context.Context) ([]postgres.FanState, error)

	// GetMistingState returns the misting document, or a wrapped
	// sql.ErrNoRows when nothing has been written yet.
	GetMistingState(ctx context.Context) (*postgres.MistingState, error)
}

// Ingestor is the interface for the component that normalizes and appends
// inbound sensor readings.
type Ingestor interface {
	Ingest(ctx context.Context, raw *telemetry.RawReading) (*postgres.Reading, error)
}

// Resolver is the interface for the component that resolves current sensor
// state from a possibly inconsistent history.
type Resolver interface {
	// Latest returns the most recent structurally valid reading, tolerant of
	// its age.
	Latest(ctx context.Context) (*postgres.Reading, error)

	// Status reports strict liveness: valid, fresh and carrying a water level.
	Status(ctx context.Context) (string, error)
}

// Scheduler is the interface for the component computing the day's fixed
// aggregate points.
type Scheduler interface {
	Schedule(ctx context.Context) []telemetry.SchedulePoint
}

// Bridge is the interface for the component that dispatches actuator
// commands to device firmware and records their outcomes.
type Bridge interface {
	CommandFan(ctx context.Context, deviceType device.Type, speed device.Speed, mode device.Mode) (*postgres.FanState, error)
	CommandMisting(ctx context.Context, mistOn bool, mode device.Mode) (*postgres.MistingState, error)
}

// Streamer is the interface for fetching an upstream byte stream to proxy.
type Streamer interface {
	GetStream(ctx context.Context, requestURL string) (*http.Response, error)
}

// Env is used to pass our component environment to handlers
type Env struct {
	db        DataStore
	ingestor  Ingestor
	resolver  Resolver
	scheduler Scheduler
	bridge    Bridge
	mailer    mailer.Mailer
	streamer  Streamer
	cameraURL string
}

// Handler is a custom handler type that provides some error handling niceties.
type Handler struct {
	env     *Env
	handler func(env *Env, w http.ResponseWriter, r *http.Request) error
}

// ServeHTTP is our implementation of the Handler interface
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.handler(h.env, w, r)
	if err != nil {
		switch e := err.(type) {
		case Error:
			// log some extra stuff if this is a non-client error
			if e.Status() == http.StatusInternalServerError {
				log := logger.FromContext(r.Context())
				log.Log("msg", "internal server error", "error", e.Error())
			}

			// now marshal to JSON
			b, innerErr := json.Marshal(e)
			if innerErr != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(e.Status())
			w.Write(b)
		default:
			log := logger.FromContext(r.Context())
			log.Log("msg", "internal server error", "error", err.Error())
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
