package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"goji.io"
	"goji.io/pat"

	"github.com/Ewixxx/PEMS/pkg/http/middleware"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rm := middleware.NewRateLimiterMiddleware(clock, 5, 10, 60*time.Second)

	mux := goji.NewMux()
	mux.Use(rm.Handler)
	mux.Handle(pat.Get("/"), testHandler{})

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, err)
	req.RemoteAddr = "192.168.1.20:51234"

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRateLimiterBlocksBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rm := middleware.NewRateLimiterMiddleware(clock, 1, 2, 60*time.Second)

	mux := goji.NewMux()
	mux.Use(rm.Handler)
	mux.Handle(pat.Get("/"), testHandler{})

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, err)
	req.RemoteAddr = "192.168.1.20:51234"

	// burst of 2 is allowed, the third request is rejected
	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	}

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}

func TestRateLimiterKeysByHost(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rm := middleware.NewRateLimiterMiddleware(clock, 1, 1, 60*time.Second)

	mux := goji.NewMux()
	mux.Use(rm.Handler)
	mux.Handle(pat.Get("/"), testHandler{})

	first, err := http.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, err)
	first.RemoteAddr = "192.168.1.20:51234"

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, first)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	mux.ServeHTTP(recorder, first)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)

	// a different host carries its own limit
	second, err := http.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, err)
	second.RemoteAddr = "192.168.1.21:40000"

	recorder = httptest.NewRecorder()
	mux.ServeHTTP(recorder, second)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
