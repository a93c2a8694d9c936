package handlers

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
	"github.com/Ewixxx/PEMS/pkg/mailer"
	goji "goji.io"
	"goji.io/pat"
)

// alertThresholdPercent is the water level below which a notification is
// actually worth sending. Requests above it are acknowledged but dropped,
// so a misconfigured client cannot spam the operators.
const alertThresholdPercent = 10

// RegisterNotifyHandlers registers the handler for dispatching low water
// alerts by email.
func RegisterNotifyHandlers(mux *goji.Mux, m mailer.Mailer) {
	mux.Handle(pat.Post("/notify/send"), Handler{env: &Env{mailer: m}, handler: sendNotificationHandler})
}

// notifyRequest is used to parse incoming notification requests
type notifyRequest struct {
	Level float64 `json:"level"`
}

// sendNotificationHandler sends a low water level alert email, but only when
// the reported level is genuinely below the alert threshold.
func sendNotificationHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to read incoming request body"),
		}
	}

	var req notifyRequest
	err = json.Unmarshal(b, &req)
	if err != nil {
		return &HTTPError{
			Code: http.StatusBadRequest,
			Err:  errors.Wrap(err, "failed to parse incoming request body"),
		}
	}

	if req.Level >= alertThresholdPercent {
		b, err = json.Marshal(struct {
			Message string `json:"message"`
		}{
			Message: "No alert needed",
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

	subject := "Water level alert"
	body := fmt.Sprintf("Warning: the water tank level has dropped to %.1f%%. Please refill the tank.", req.Level)

	err = env.mailer.Send(subject, body)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to send alert email"),
		}
	}

	b, err = json.Marshal(struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{
		Success: true,
		Message: "Alert email sent",
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
