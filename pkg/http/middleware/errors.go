package middleware

import (
	"encoding/json"
	"net/http"
)

type httpError struct {
	Message string `json:"message"`
}

func tooManyRequestsError(w http.ResponseWriter, err error) {
	httpErr := &httpError{
		Message: err.Error(),
	}

	b, err := json.Marshal(httpErr)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write(b)
}
