package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guregu/null"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/Ewixxx/PEMS/pkg/http/handlers"
	"github.com/Ewixxx/PEMS/pkg/postgres"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
	goji "goji.io"
)

type stubIngestor struct {
	raw *telemetry.RawReading
	err error
}

func (s *stubIngestor) Ingest(ctx context.Context, raw *telemetry.RawReading) (*postgres.Reading, error) {
	s.raw = raw
	if s.err != nil {
		return nil, s.err
	}
	return &postgres.Reading{}, nil
}

type stubResolver struct {
	reading *postgres.Reading
	status  string
	err     error
}

func (s *stubResolver) Latest(ctx context.Context) (*postgres.Reading, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.reading, nil
}

func (s *stubResolver) Status(ctx context.Context) (string, error) {
	if s.err != nil {
		return telemetry.StatusDisconnected, s.err
	}
	return s.status, nil
}

type stubScheduler struct {
	points []telemetry.SchedulePoint
}

func (s *stubScheduler) Schedule(ctx context.Context) []telemetry.SchedulePoint {
	return s.points
}

func TestCreateReading(t *testing.T) {
	ingestor := &stubIngestor{}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, ingestor, nil, nil)

	input := []byte(`{"temperature": 31.5, "waterLevel": "42", "mistOn": "true"}`)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/sensor", bytes.NewReader(input))
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"success":true}`, recorder.Body.String())

	assert.NotNil(t, ingestor.raw)
	assert.Equal(t, "42", ingestor.raw.WaterLevel)
}

func TestCreateReadingInvalidJSON(t *testing.T) {
	ingestor := &stubIngestor{}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, ingestor, nil, nil)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/sensor", bytes.NewReader([]byte(`{not json`)))
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Nil(t, ingestor.raw)
}

func TestCreateReadingStoreFailure(t *testing.T) {
	ingestor := &stubIngestor{err: errors.New("db gone")}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, ingestor, nil, nil)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/sensor", bytes.NewReader([]byte(`{}`)))
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestLatestReading(t *testing.T) {
	resolver := &stubResolver{
		reading: &postgres.Reading{
			Temperature:       30.5,
			WaterLevelCm:      null.FloatFrom(25),
			WaterLevelPercent: 50,
			MistOn:            true,
			CreatedAt:         null.TimeFrom(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		},
	}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, nil, resolver, nil)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/sensor/latest", nil)
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp map[string]interface{}
	err = json.Unmarshal(recorder.Body.Bytes(), &resp)
	assert.Nil(t, err)

	assert.Equal(t, 30.5, resp["temperature"])
	assert.Equal(t, float64(25), resp["waterLevel"])
	assert.Equal(t, float64(50), resp["waterLevelPercent"])
	assert.Equal(t, true, resp["mistOn"])
	assert.Equal(t, "2024-05-01T12:00:00Z", resp["createdAt"])
}

func TestLatestReadingNoValidData(t *testing.T) {
	resolver := &stubResolver{err: telemetry.ErrNoValidReading}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, nil, resolver, nil)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/sensor/latest", nil)
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var resp map[string]interface{}
	err = json.Unmarshal(recorder.Body.Bytes(), &resp)
	assert.Nil(t, err)

	assert.Nil(t, resp["temperature"])
	assert.Nil(t, resp["waterLevel"])
	assert.Equal(t, "No valid data found", resp["message"])
}

func TestLatestReadingEmptyHistory(t *testing.T) {
	resolver := &stubResolver{err: telemetry.ErrNoReadings}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, nil, resolver, nil)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/sensor/latest", nil)
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var resp map[string]interface{}
	err = json.Unmarshal(recorder.Body.Bytes(), &resp)
	assert.Nil(t, err)

	assert.Nil(t, resp["temperature"])
	assert.Equal(t, "No data available", resp["message"])
}

func TestSensorStatus(t *testing.T) {
	resolver := &stubResolver{status: telemetry.StatusConnected}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, nil, resolver, nil)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/sensor/status", nil)
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"connected"}`, recorder.Body.String())
}

func TestSchedule(t *testing.T) {
	scheduler := &stubScheduler{
		points: []telemetry.SchedulePoint{
			{Label: "12:00 AM", Temperature: 28, WaterLevelPercent: 60},
			{Label: "3:00 AM"},
		},
	}

	mux := goji.NewMux()
	handlers.RegisterSensorHandlers(mux, nil, nil, scheduler)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/sensor/schedule", nil)
	assert.Nil(t, err)

	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var points []map[string]interface{}
	err = json.Unmarshal(recorder.Body.Bytes(), &points)
	assert.Nil(t, err)

	assert.Len(t, points, 2)
	assert.Equal(t, "12:00 AM", points[0]["label"])
	assert.Equal(t, float64(28), points[0]["temperature"])
}
