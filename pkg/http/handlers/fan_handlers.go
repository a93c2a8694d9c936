package handlers

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/Ewixxx/PEMS/pkg/device"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	goji "goji.io"
	"goji.io/pat"
)

// RegisterFanHandlers registers handlers for reading and commanding the fan
// devices.
func RegisterFanHandlers(mux *goji.Mux, db DataStore, bridge Bridge) {
	mux.Handle(pat.Get("/fan"), Handler{env: &Env{db: db}, handler: listFansHandler})
	mux.Handle(pat.Post("/fan/:deviceType"), Handler{env: &Env{bridge: bridge}, handler: commandFanHandler})
}

// fanCommandRequest is used to parse incoming fan commands
type fanCommandRequest struct {
	Speed string `json:"speed"`
	Mode  string `json:"mode"`
}

// fanView is used when rendering a single fan's state to the client
type fanView struct {
	Speed     string  `json:"speed"`
	Mode      string  `json:"mode"`
	RPM       int     `json:"rpm"`
	Power     float64 `json:"power"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// listFansHandler returns the last known state of every fan keyed by device
// type. Fans that have never been commanded are reported off in auto mode so
// clients see a complete map on a fresh deployment.
func listFansHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	states, err := env.db.CurrentFanStates(ctx)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to load fan states"),
		}
	}

	fans := map[string]fanView{
		string(device.Exhaust): {Speed: string(device.Off), Mode: string(device.Auto)},
		string(device.Intake):  {Speed: string(device.Off), Mode: string(device.Auto)},
	}

	for _, state := range states {
		fans[state.DeviceType] = buildFanView(&state)
	}

	b, err := json.Marshal(fans)
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

// commandFanHandler validates an operator command, dispatches it to the
// device and returns the recorded state. Validation failures are client
// errors; a dead device is not, so only a store failure can return a 500.
func commandFanHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	deviceType, err := device.FanType(pat.Param(r, "deviceType"))
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  err,
		}
	}

	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to read incoming request body"),
		}
	}

	var req fanCommandRequest
	err = json.Unmarshal(b, &req)
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  errors.Wrap(err, "failed to parse incoming request body"),
		}
	}

	speed, err := device.ParseSpeed(req.Speed)
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  err,
		}
	}

	mode, err := device.ParseMode(req.Mode)
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  err,
		}
	}

	state, err := env.bridge.CommandFan(ctx, deviceType, speed, mode)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to command fan"),
		}
	}

	b, err = json.Marshal(struct {
		Success bool    `json:"success"`
		Type    string  `json:"type"`
		Speed   string  `json:"speed"`
		Mode    string  `json:"mode"`
		RPM     int     `json:"rpm"`
		Power   float64 `json:"power"`
	}{
		Success: true,
		Type:    state.DeviceType,
		Speed:   state.Speed,
		Mode:    state.Mode,
		RPM:     state.RPM,
		Power:   state.Power,
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

// buildFanView builds our output fan type from the state returned from
// Postgres
func buildFanView(state *postgres.FanState) fanView {
	return fanView{
		Speed:     state.Speed,
		Mode:      state.Mode,
		RPM:       state.RPM,
		Power:     state.Power,
		UpdatedAt: state.UpdatedAt.Format(time.RFC3339),
	}
}
