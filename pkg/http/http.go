package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/jonboulle/clockwork"
	goji "goji.io"

	"github.com/Ewixxx/PEMS/pkg/client"
	"github.com/Ewixxx/PEMS/pkg/device"
	"github.com/Ewixxx/PEMS/pkg/http/handlers"
	"github.com/Ewixxx/PEMS/pkg/http/middleware"
	"github.com/Ewixxx/PEMS/pkg/mailer"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
)

const (
	// Timeout is a timeout we add on the server to enforce timeouts for slow
	// clients
	Timeout = 5
)

// HTTP is our struct that exposes an HTTP server for handling incoming
// requests.
type HTTP struct {
	logger kitlog.Logger
	srv    *http.Server
	*Config
}

// Config is a struct used to pass configuration into the HTTP instance
type Config struct {
	Addr       string
	DB         *postgres.DB
	Ingestor   *telemetry.Ingestor
	Resolver   *telemetry.Resolver
	Aggregator *telemetry.Aggregator
	Bridge     *device.Bridge
	Client     *client.Client
	Mailer     mailer.Mailer
	CameraURL  string
	Rate       int
	Burst      int
	Expiry     time.Duration
	Verbose    bool
	QuitChan   <-chan struct{}
	ErrChan    chan<- error
	WaitGroup  *sync.WaitGroup
}

// NewHTTP returns a new HTTP instance configured and ready to use, but not yet
// started. Note the write timeout is left unset as the camera proxy holds its
// response open for as long as the client watches the stream.
func NewHTTP(config *Config, logger kitlog.Logger) *HTTP {
	logger = kitlog.With(logger, "module", "http")

	srv := &http.Server{
		Addr:        config.Addr,
		ReadTimeout: Timeout * time.Second,
	}

	logger.Log(
		"msg", "configuring http server",
		"addr", config.Addr,
		"readTimeout", Timeout,
	)

	return &HTTP{
		logger: logger,
		srv:    srv,
		Config: config,
	}
}

// Start starts the HTTP service running. Requires any dependencies to already
// be started elsewhere. Note we do not return an error from the function,
// rather as we start in a separate goroutine we use a channel to report back
// any errors.
func (h *HTTP) Start() {
	h.logger.Log("msg", "starting http server")

	mux := goji.NewMux()
	handlers.RegisterHealthCheck(mux, h.DB)
	handlers.RegisterMetricsHandler(mux)
	handlers.RegisterSensorHandlers(mux, h.Ingestor, h.Resolver, h.Aggregator)
	handlers.RegisterFanHandlers(mux, h.DB, h.Bridge)
	handlers.RegisterMistingHandlers(mux, h.DB, h.Bridge)
	handlers.RegisterNotifyHandlers(mux, h.Mailer)
	handlers.RegisterCameraHandlers(mux, h.Client, h.CameraURL)

	// add middleware
	mux.Use(middleware.RequestIDMiddleware)

	loggingMiddleware := middleware.NewLoggingMiddleware(h.logger, h.Verbose)
	mux.Use(loggingMiddleware.Handler)

	rateLimiterMiddleware := middleware.NewRateLimiterMiddleware(clockwork.NewRealClock(), h.Rate, h.Burst, h.Expiry)
	mux.Use(rateLimiterMiddleware.Handler)

	mux.Use(middleware.MetricsMiddleware)

	h.srv.Handler = mux

	go func() {
		if err := h.srv.ListenAndServe(); err != nil {
			h.ErrChan <- err
		}
	}()

	<-h.QuitChan

	h.logger.Log("msg", "stopping http service")

	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	h.srv.Shutdown(ctx)
	h.WaitGroup.Done()
}
