package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhtcode-go/host/monitor"
	"dhtcode-go/services/console"
	"dhtcode-go/types"
)


func fixture(t *testing.T) *handler {
	t.Helper()
	agg := monitor.NewAggregator()
	agg.Apply(console.Record{Type: console.LineValue, Kind: types.KindTemperature, Name: "room", Value: 215})
	agg.Apply(console.Record{Type: console.LineValue, Kind: types.KindHumidity, Name: "attic", Value: 6000})

	h := &handler{src: agg, staleAfter: 10 * time.Second}
	// Aggregator stamps with the wall clock; judge staleness relative to it.
	base := time.Now()
	h.now = func() time.Time { return base }
	return h
}

func do(t *testing.T, h *handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, fixture(t), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","sensors":2}`, rec.Body.String())
}

func TestReadings(t *testing.T) {
	rec := do(t, fixture(t), "/readings")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []monitor.Reading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "attic", got[0].Name)
	assert.Equal(t, float32(60), *got[0].RelHum)
	assert.Equal(t, "room", got[1].Name)
	assert.Equal(t, float32(21.5), *got[1].Celsius)
	assert.False(t, got[1].Stale)
}

func TestReading_ByName(t *testing.T) {
	h := fixture(t)
	rec := do(t, h, "/readings/room")
	require.Equal(t, http.StatusOK, rec.Code)
	var got monitor.Reading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "room", got.Name)
	assert.Equal(t, types.LinkUp, got.Link)

	rec = do(t, h, "/readings/cellar")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"unknown sensor cellar"}`, rec.Body.String())
}

func TestReading_Stale(t *testing.T) {
	h := fixture(t)
	h.now = func() time.Time { return time.Now().Add(time.Minute) }
	var got monitor.Reading
	require.NoError(t, json.Unmarshal(do(t, h, "/readings/room").Body.Bytes(), &got))
	assert.True(t, got.Stale)

	h.staleAfter = 0
	require.NoError(t, json.Unmarshal(do(t, h, "/readings/room").Body.Bytes(), &got))
	assert.False(t, got.Stale)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(fixture(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/readings", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
