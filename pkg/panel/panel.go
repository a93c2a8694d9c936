package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/client"
	"github.com/Ewixxx/PEMS/pkg/device"
	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
)

// Config is the state holder we pass in to configure the panel.
type Config struct {
	APIURL    string
	Client    *client.Client
	Clock     clockwork.Clock
	Interval  time.Duration
	QuitChan  <-chan struct{}
	ErrChan   chan<- error
	WaitGroup *sync.WaitGroup
}

// State is a snapshot of everything the panel currently displays.
type State struct {
	Connected         bool
	Temperature       float64
	WaterLevelCm      float64
	WaterLevelPercent float64
	Fans              FanStatus
	MistOn            bool
	MistMode          device.Mode
}

// Panel is the long-lived operator console: it polls the API on a fixed
// interval, arbitrates fetched actuator state against operator overrides,
// and feeds water level observations into the alert monitor. It is the only
// place the override flags and the alert arm state live.
type Panel struct {
	*Config
	logger  kitlog.Logger
	monitor *Monitor

	mu    sync.Mutex
	state State
}

// NewPanel returns a new Panel instance ready to start polling.
func NewPanel(config *Config, logger kitlog.Logger) *Panel {
	logger = kitlog.With(logger, "module", "panel")

	logger.Log("msg", "configuring panel", "apiURL", config.APIURL, "interval", config.Interval)

	p := &Panel{
		Config: config,
		logger: logger,
		state: State{
			Fans:     NewFanStatus(),
			MistMode: device.Auto,
		},
	}

	p.monitor = NewMonitor(&apiNotifier{client: config.Client, apiURL: config.APIURL}, logger)

	return p
}

// Start starts the panel polling, any errors sent back via the error channel.
func (p *Panel) Start() {
	p.logger.Log("msg", "starting panel")

	ticker := p.Clock.NewTicker(p.Interval)

	for {
		select {
		case <-ticker.Chan():
			p.Refresh(logger.ToContext(context.Background(), p.logger))
		case <-p.QuitChan:
			p.logger.Log("msg", "stopping panel")
			ticker.Stop()
			p.WaitGroup.Done()
			return
		}
	}
}

// State returns a copy of the current display state.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := p.state
	snapshot.Fans = FanStatus{}
	for deviceType, view := range p.state.Fans {
		snapshot.Fans[deviceType] = view
	}

	return snapshot
}

// Refresh performs one poll round: sensor status, latest reading, fan status
// and misting status. Each fetch degrades independently: a failed fetch
// leaves the corresponding state untouched and never transitions any
// override flag.
func (p *Panel) Refresh(ctx context.Context) {
	p.refreshSensor(ctx)
	p.refreshFans(ctx)
	p.refreshMisting(ctx)
}

// SetFanSpeed issues an operator fan command. A manual command pins the
// actuator so background refreshes stop replacing its view; an explicit auto
// command releases the pin. No state changes if the command cannot be posted.
func (p *Panel) SetFanSpeed(ctx context.Context, deviceType device.Type, speed device.Speed, mode device.Mode) error {
	body, err := json.Marshal(struct {
		Speed string `json:"speed"`
		Mode  string `json:"mode"`
	}{
		Speed: string(speed),
		Mode:  string(mode),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal fan command")
	}

	requestURL := fmt.Sprintf("%s/fan/%s", p.APIURL, deviceType)

	_, err = p.Client.Post(ctx, requestURL, string(body))
	if err != nil {
		return errors.Wrap(err, "failed to post fan command")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	view := p.state.Fans[deviceType]
	view.Speed = speed
	view.Mode = mode
	view.ManualOverride = mode == device.Manual
	p.state.Fans[deviceType] = view

	return nil
}

// SetMisting issues an operator misting command.
func (p *Panel) SetMisting(ctx context.Context, mistOn bool, mode device.Mode) error {
	body, err := json.Marshal(struct {
		MistOn bool   `json:"mistOn"`
		Mode   string `json:"mode"`
	}{
		MistOn: mistOn,
		Mode:   string(mode),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal misting command")
	}

	_, err = p.Client.Post(ctx, p.APIURL+"/misting", string(body))
	if err != nil {
		return errors.Wrap(err, "failed to post misting command")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.MistOn = mistOn
	p.state.MistMode = mode

	return nil
}

// refreshSensor updates connectivity and the latest reading snapshot.
func (p *Panel) refreshSensor(ctx context.Context) {
	log := logger.FromContext(ctx)

	statusBody, err := p.Client.Get(ctx, p.APIURL+"/sensor/status")
	if err != nil {
		log.Log("msg", "failed to fetch sensor status", "err", err.Error())
		return
	}

	var status struct {
		Status string `json:"status"`
	}

	err = json.Unmarshal(statusBody, &status)
	if err != nil {
		log.Log("msg", "unparseable sensor status", "err", err.Error())
		return
	}

	latestBody, err := p.Client.Get(ctx, p.APIURL+"/sensor/latest")
	if err != nil {
		if err == client.NotFoundError {
			p.mu.Lock()
			p.state.Connected = false
			p.mu.Unlock()
		} else {
			log.Log("msg", "failed to fetch latest reading", "err", err.Error())
		}
		return
	}

	var latest struct {
		Temperature       float64 `json:"temperature"`
		WaterLevel        float64 `json:"waterLevel"`
		WaterLevelPercent float64 `json:"waterLevelPercent"`
	}

	err = json.Unmarshal(latestBody, &latest)
	if err != nil {
		log.Log("msg", "unparseable latest reading", "err", err.Error())
		return
	}

	p.mu.Lock()
	p.state.Connected = status.Status == telemetry.StatusConnected
	p.state.Temperature = latest.Temperature
	p.state.WaterLevelCm = latest.WaterLevel
	p.state.WaterLevelPercent = latest.WaterLevelPercent
	p.mu.Unlock()

	p.monitor.Observe(ctx, latest.WaterLevelPercent)
}

// refreshFans merges fetched fan status through the arbiter.
func (p *Panel) refreshFans(ctx context.Context) {
	log := logger.FromContext(ctx)

	body, err := p.Client.Get(ctx, p.APIURL+"/fan")
	if err != nil {
		log.Log("msg", "failed to fetch fan status", "err", err.Error())
		return
	}

	var payload map[string]struct {
		Speed string  `json:"speed"`
		Mode  string  `json:"mode"`
		RPM   int     `json:"rpm"`
		Power float64 `json:"power"`
	}

	err = json.Unmarshal(body, &payload)
	if err != nil {
		log.Log("msg", "unparseable fan status", "err", err.Error())
		return
	}

	fetched := FanStatus{}
	for name, fan := range payload {
		fetched[device.Type(name)] = FanView{
			Speed: device.Speed(fan.Speed),
			Mode:  device.Mode(fan.Mode),
			RPM:   fan.RPM,
			Power: fan.Power,
		}
	}

	p.mu.Lock()
	p.state.Fans = MergeFans(p.state.Fans, fetched)
	p.mu.Unlock()
}

// refreshMisting updates the misting view.
func (p *Panel) refreshMisting(ctx context.Context) {
	log := logger.FromContext(ctx)

	body, err := p.Client.Get(ctx, p.APIURL+"/misting")
	if err != nil {
		log.Log("msg", "failed to fetch misting status", "err", err.Error())
		return
	}

	var payload struct {
		MistOn bool   `json:"mistOn"`
		Mode   string `json:"mode"`
	}

	err = json.Unmarshal(body, &payload)
	if err != nil {
		log.Log("msg", "unparseable misting status", "err", err.Error())
		return
	}

	p.mu.Lock()
	p.state.MistOn = payload.MistOn
	p.state.MistMode = device.Mode(payload.Mode)
	p.mu.Unlock()
}

// apiNotifier delivers low-water alerts by posting to the notify endpoint.
type apiNotifier struct {
	client *client.Client
	apiURL string
}

// Alert posts the current level to the API, which decides on delivery.
func (n *apiNotifier) Alert(ctx context.Context, level float64) error {
	body, err := json.Marshal(struct {
		Level float64 `json:"level"`
	}{
		Level: level,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal alert payload")
	}

	_, err = n.client.Post(ctx, n.apiURL+"/notify/send", string(body))
	if err != nil {
		return errors.Wrap(err, "failed to post alert")
	}

	return nil
}
