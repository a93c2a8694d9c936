package device

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/guregu/null"
	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/client"
	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/postgres"
)

// Recorder is the slice of the store the bridge writes command outcomes to.
type Recorder interface {
	InsertFanState(ctx context.Context, state *postgres.FanState) error
	UpsertMistingState(ctx context.Context, update *postgres.MistingUpdate) (*postgres.MistingState, error)
}

// Bridge translates semantic actuator commands into device-level
// instructions, dispatches them to the firmware over a single best-effort
// HTTP call, and records the requested command plus any telemetry the device
// returned. Device unreachability never fails the command: the record is
// written with zero telemetry so the UI still reflects operator intent.
type Bridge struct {
	client   *client.Client
	recorder Recorder
	fanURL   string
	mistURL  string
}

// Telemetry is what the firmware reports back after applying a fan command.
type Telemetry struct {
	RPM   int     `json:"rpm"`
	Power float64 `json:"watt"`
}

// NewBridge returns a Bridge dispatching to the given device endpoints and
// recording outcomes in the given store.
func NewBridge(cl *client.Client, recorder Recorder, fanURL, mistURL string) *Bridge {
	return &Bridge{
		client:   cl,
		recorder: recorder,
		fanURL:   fanURL,
		mistURL:  mistURL,
	}
}

// CommandFan dispatches a fan speed change and appends the resulting state
// record. The returned state always reflects the requested command; rpm and
// power are zero when the device did not confirm.
func (b *Bridge) CommandFan(ctx context.Context, deviceType Type, speed Speed, mode Mode) (*postgres.FanState, error) {
	log := logger.FromContext(ctx)

	telemetry := b.dispatchFan(ctx, deviceType, speed)

	state := &postgres.FanState{
		DeviceType: string(deviceType),
		Speed:      string(speed),
		Mode:       string(mode),
		RPM:        telemetry.RPM,
		Power:      telemetry.Power,
	}

	err := b.recorder.InsertFanState(ctx, state)
	if err != nil {
		return nil, errors.Wrap(err, "failed to record fan command")
	}

	log.Log(
		"msg", "fan command recorded",
		"deviceType", deviceType,
		"speed", speed,
		"mode", mode,
		"rpm", telemetry.RPM,
	)

	return state, nil
}

// CommandMisting dispatches a misting toggle and merges the resulting state
// into the misting document.
func (b *Bridge) CommandMisting(ctx context.Context, mistOn bool, mode Mode) (*postgres.MistingState, error) {
	log := logger.FromContext(ctx)

	b.dispatchMisting(ctx, mistOn)

	state, err := b.recorder.UpsertMistingState(ctx, &postgres.MistingUpdate{
		MistOn: null.BoolFrom(mistOn),
		Mode:   null.StringFrom(string(mode)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to record misting command")
	}

	log.Log(
		"msg", "misting command recorded",
		"mistOn", mistOn,
		"mode", mode,
	)

	return state, nil
}

// dispatchFan performs the single device call for a fan command. Failures
// are logged and degrade to zero telemetry, they are never escalated.
func (b *Bridge) dispatchFan(ctx context.Context, deviceType Type, speed Speed) Telemetry {
	log := logger.FromContext(ctx)

	values := url.Values{}
	values.Set("type", string(deviceType))
	values.Set("speed", strconv.Itoa(speed.Duty()))

	body, err := b.client.PostForm(ctx, b.fanURL, values)
	if err != nil {
		log.Log("msg", "could not reach fan controller", "deviceType", deviceType, "err", err.Error())
		return Telemetry{}
	}

	var telemetry Telemetry

	err = json.Unmarshal(body, &telemetry)
	if err != nil {
		log.Log("msg", "unparseable fan controller response", "err", err.Error())
		return Telemetry{}
	}

	return telemetry
}

// dispatchMisting performs the single device call for a misting command.
func (b *Bridge) dispatchMisting(ctx context.Context, mistOn bool) {
	log := logger.FromContext(ctx)

	values := url.Values{}
	values.Set("mist", strconv.FormatBool(mistOn))

	_, err := b.client.PostForm(ctx, b.mistURL, values)
	if err != nil {
		log.Log("msg", "could not reach misting controller", "err", err.Error())
	}
}
