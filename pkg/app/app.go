package app

import (
	"os"
	"os/signal"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/jonboulle/clockwork"

	"github.com/Ewixxx/PEMS/pkg/client"
	"github.com/Ewixxx/PEMS/pkg/device"
	"github.com/Ewixxx/PEMS/pkg/http"
	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/mailer"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
)

// Config holds all the configuration the app needs to assemble its
// components.
type Config struct {
	Addr          string
	DatabaseURL   string
	ClientTimeout int
	Verbose       bool
	FanURL        string
	MistURL       string
	CameraURL     string
	TankHeightCm  float64
	Rate          int
	Burst         int
	Expiry        time.Duration
	SMTP          *mailer.Config
}

// NewApp returns a new App instance with components configured but not yet
// started.
func NewApp(config *Config) *App {
	log := logger.NewLogger()

	quitChan := make(chan struct{})
	errChan := make(chan error)
	var wg sync.WaitGroup

	db := postgres.NewDB(config.DatabaseURL, log, config.Verbose)

	cl := client.NewClient(config.ClientTimeout, config.Verbose)

	clock := clockwork.NewRealClock()

	ingestor := telemetry.NewIngestor(db, config.TankHeightCm)
	resolver := telemetry.NewResolver(db, clock)
	aggregator := telemetry.NewAggregator(db, clock)

	bridge := device.NewBridge(cl, db, config.FanURL, config.MistURL)

	m := mailer.NewSMTPMailer(config.SMTP)

	h := http.NewHTTP(&http.Config{
		Addr:       config.Addr,
		DB:         db,
		Ingestor:   ingestor,
		Resolver:   resolver,
		Aggregator: aggregator,
		Bridge:     bridge,
		Client:     cl,
		Mailer:     m,
		CameraURL:  config.CameraURL,
		Rate:       config.Rate,
		Burst:      config.Burst,
		Expiry:     config.Expiry,
		Verbose:    config.Verbose,
		QuitChan:   quitChan,
		ErrChan:    errChan,
		WaitGroup:  &wg,
	}, log)

	return &App{
		logger:   log,
		db:       db,
		http:     h,
		quitChan: quitChan,
		errChan:  errChan,
		wg:       &wg,
	}
}

// App is our core application instance - holds all the state and child
// components and is responsible for starting/stopping and managing
// communication between these elements.
type App struct {
	logger kitlog.Logger
	db     *postgres.DB
	http   *http.HTTP

	quitChan chan struct{}
	errChan  chan error
	wg       *sync.WaitGroup
}

// Start the application running. We spawn some child components in separate
// goroutines and hook up some channels by which we can communicate with these
// tasks.
func (a *App) Start() error {
	a.logger.Log("msg", "starting app")

	err := a.db.Start()
	if err != nil {
		return err
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)

	a.wg.Add(1)
	go func() {
		a.http.Start()
	}()

	select {
	case <-stopChan:
		a.logger.Log("msg", "stopping app")
		close(a.quitChan)
		a.wg.Wait()
	case err := <-a.errChan:
		return err
	}

	return a.db.Stop()
}
