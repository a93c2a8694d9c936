package handlers

import (
	"database/sql"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/Ewixxx/PEMS/pkg/device"
	goji "goji.io"
	"goji.io/pat"
)

// RegisterMistingHandlers registers handlers for reading and commanding the
// misting system.
func RegisterMistingHandlers(mux *goji.Mux, db DataStore, bridge Bridge) {
	mux.Handle(pat.Get("/misting"), Handler{env: &Env{db: db}, handler: getMistingHandler})
	mux.Handle(pat.Post("/misting"), Handler{env: &Env{bridge: bridge}, handler: commandMistingHandler})
}

// mistingCommandRequest is used to parse incoming misting commands. MistOn is
// a pointer so we can distinguish an absent field from an explicit false.
type mistingCommandRequest struct {
	MistOn *bool  `json:"mistOn"`
	Mode   string `json:"mode"`
}

// getMistingHandler returns the current misting state, or the defaults when
// no command has ever been issued.
func getMistingHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	resp := struct {
		MistOn    bool   `json:"mistOn"`
		Mode      string `json:"mode"`
		UpdatedAt string `json:"updatedAt,omitempty"`
	}{
		MistOn: false,
		Mode:   string(device.Auto),
	}

	state, err := env.db.GetMistingState(ctx)
	if err != nil {
		if errors.Cause(err) != sql.ErrNoRows {
			return &HTTPError{
				Code: http.StatusInternalServerError,
				Err:  errors.Wrap(err, "failed to load misting state"),
			}
		}
	} else {
		resp.MistOn = state.MistOn
		resp.Mode = state.Mode
		resp.UpdatedAt = state.UpdatedAt.Format(time.RFC3339)
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

// commandMistingHandler validates a misting command, dispatches it and
// returns the merged state. Unlike sensor ingest this endpoint is strict:
// commands come from operators, not flaky firmware, so a missing mistOn or an
// unknown mode is rejected.
func commandMistingHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to read incoming request body"),
		}
	}

	var req mistingCommandRequest
	err = json.Unmarshal(b, &req)
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  errors.Wrap(err, "failed to parse incoming request body"),
		}
	}

	if req.MistOn == nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  errors.New("mistOn must be a boolean"),
		}
	}

	// unlike fan commands an omitted mode carries no default here
	if req.Mode == "" {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  errors.New("mode must be one of auto or manual"),
		}
	}

	mode, err := device.ParseMode(req.Mode)
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  err,
		}
	}

	state, err := env.bridge.CommandMisting(ctx, *req.MistOn, mode)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to command misting"),
		}
	}

	b, err = json.Marshal(struct {
		Success   bool   `json:"success"`
		MistOn    bool   `json:"mistOn"`
		Mode      string `json:"mode"`
		UpdatedAt string `json:"updatedAt"`
	}{
		Success:   true,
		MistOn:    state.MistOn,
		Mode:      state.Mode,
		UpdatedAt: state.UpdatedAt.Format(time.RFC3339),
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
