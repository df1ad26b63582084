package storms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
}

func TestEventsNear_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data", r.URL.Path)
		assert.Equal(t, "stormevents", r.URL.Query().Get("dataset"))
		assert.Equal(t, "2024-08-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2026-08-01", r.URL.Query().Get("endDate"))
		assert.NotEmpty(t, r.URL.Query().Get("bbox"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"id": "se-1", "eventType": "Hail", "latitude": 39.45, "longitude": -77.39, "beginDate": "2026-05-02"},
				{"id": "se-2", "eventType": "Thunderstorm Wind", "latitude": 39.40, "longitude": -77.44, "beginDate": "2025-11-18"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithClock(fixedNow))
	events, err := client.EventsNear(context.Background(), 39.4143, -77.4105, 24140.16)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Hail", events[0].Type)
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), events[0].Date)
	assert.InDelta(t, 39.45, events[0].Lat, 0.001)
}

func TestEventsNear_Lookback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2021-08-01", r.URL.Query().Get("startDate"))
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithClock(fixedNow), WithLookback(5))
	events, err := client.EventsNear(context.Background(), 39.4143, -77.4105, 1000)

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventsNear_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	events, err := client.EventsNear(context.Background(), 39.4143, -77.4105, 1000)

	assert.Error(t, err)
	assert.Nil(t, events)
	assert.Contains(t, err.Error(), "503")
}

func TestEventsNear_BadDateTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"id": "se-1", "eventType": "Hail", "latitude": 39.4, "longitude": -77.4, "beginDate": "not-a-date"}]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	events, err := client.EventsNear(context.Background(), 39.4143, -77.4105, 1000)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Date.IsZero())
}
