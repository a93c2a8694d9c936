package device_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/thingful/simular"

	"github.com/Ewixxx/PEMS/pkg/client"
	"github.com/Ewixxx/PEMS/pkg/device"
	"github.com/Ewixxx/PEMS/pkg/postgres"
)

const (
	fanURL  = "http://192.168.1.20:81/fan"
	mistURL = "http://192.168.1.20:81/mist"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) InsertFanState(ctx context.Context, state *postgres.FanState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockRecorder) UpsertMistingState(ctx context.Context, update *postgres.MistingUpdate) (*postgres.MistingState, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*postgres.MistingState), args.Error(1)
}

func TestCommandFanRecordsDeviceTelemetry(t *testing.T) {
	cl := client.NewClient(1, false)

	simular.ActivateNonDefault(cl.Client)
	defer simular.DeactivateAndReset()

	simular.RegisterStubRequests(
		simular.NewStubRequest(
			"POST",
			fanURL,
			simular.NewStringResponder(200, `{"rpm":1800,"watt":6.4}`),
		),
	)

	recorder := new(mockRecorder)
	recorder.On("InsertFanState", mock.Anything, mock.Anything).Return(nil)

	bridge := device.NewBridge(cl, recorder, fanURL, mistURL)

	state, err := bridge.CommandFan(context.Background(), device.Exhaust, device.Fast, device.Manual)
	assert.Nil(t, err)

	assert.Equal(t, "exhaust", state.DeviceType)
	assert.Equal(t, "fast", state.Speed)
	assert.Equal(t, "manual", state.Mode)
	assert.Equal(t, 1800, state.RPM)
	assert.Equal(t, 6.4, state.Power)

	recorder.AssertExpectations(t)

	err = simular.AllStubsCalled()
	assert.Nil(t, err)
}

func TestCommandFanPersistsWhenDeviceUnreachable(t *testing.T) {
	cl := client.NewClient(1, false)

	// no stubs registered, so the device call fails
	simular.ActivateNonDefault(cl.Client)
	defer simular.DeactivateAndReset()

	recorder := new(mockRecorder)
	recorder.On("InsertFanState", mock.Anything, mock.Anything).Return(nil)

	bridge := device.NewBridge(cl, recorder, fanURL, mistURL)

	state, err := bridge.CommandFan(context.Background(), device.Intake, device.Fast, device.Manual)
	assert.Nil(t, err)

	// command is still recorded, telemetry reads back as unconfirmed
	assert.Equal(t, "fast", state.Speed)
	assert.Equal(t, "manual", state.Mode)
	assert.Equal(t, 0, state.RPM)
	assert.Equal(t, 0.0, state.Power)

	recorder.AssertExpectations(t)
}

func TestCommandFanStoreFailure(t *testing.T) {
	cl := client.NewClient(1, false)

	simular.ActivateNonDefault(cl.Client)
	defer simular.DeactivateAndReset()

	simular.RegisterStubRequests(
		simular.NewStubRequest(
			"POST",
			fanURL,
			simular.NewStringResponder(200, `{"rpm":400,"watt":1.1}`),
		),
	)

	recorder := new(mockRecorder)
	recorder.On("InsertFanState", mock.Anything, mock.Anything).Return(postgres.ServerError)

	bridge := device.NewBridge(cl, recorder, fanURL, mistURL)

	_, err := bridge.CommandFan(context.Background(), device.Exhaust, device.Slow, device.Auto)
	assert.NotNil(t, err)
}

func TestCommandMisting(t *testing.T) {
	cl := client.NewClient(1, false)

	simular.ActivateNonDefault(cl.Client)
	defer simular.DeactivateAndReset()

	simular.RegisterStubRequests(
		simular.NewStubRequest(
			"POST",
			mistURL,
			simular.NewStringResponder(200, "ok"),
		),
	)

	recorder := new(mockRecorder)
	recorder.On("UpsertMistingState", mock.Anything, mock.Anything).
		Return(&postgres.MistingState{MistOn: true, Mode: "manual"}, nil)

	bridge := device.NewBridge(cl, recorder, fanURL, mistURL)

	state, err := bridge.CommandMisting(context.Background(), true, device.Manual)
	assert.Nil(t, err)
	assert.True(t, state.MistOn)
	assert.Equal(t, "manual", state.Mode)

	recorder.AssertExpectations(t)
}
