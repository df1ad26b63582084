package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.rating")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "roofing companies", body.TextQuery)
		require.NotNil(t, body.LocationBias)
		assert.InDelta(t, 39.4143, body.LocationBias.Circle.Center.Latitude, 0.001)
		assert.InDelta(t, 16093.44, body.LocationBias.Circle.Radius, 0.01)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Places: []Place{
				{
					ID:              "ChIJ-test1",
					DisplayName:     DisplayName{Text: "Summit Roofing"},
					Rating:          3.2,
					UserRatingCount: 14,
					PrimaryType:     "roofing_contractor",
					Location:        &LatLng{Latitude: 39.42, Longitude: -77.41},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{
		TextQuery: "roofing companies",
		LocationBias: &CircleB{Circle: Circle{
			Center: LatLng{Latitude: 39.4143, Longitude: -77.4105},
			Radius: 16093.44,
		}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "ChIJ-test1", resp.Places[0].ID)
	assert.Equal(t, "Summit Roofing", resp.Places[0].DisplayName.Text)
	assert.InDelta(t, 3.2, resp.Places[0].Rating, 0.001)
	assert.Equal(t, 14, resp.Places[0].UserRatingCount)
	assert.Empty(t, resp.Places[0].WebsiteURI)
}

func TestTextSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "nothing here"})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "test"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "403")
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(ctx, TextSearchRequest{TextQuery: "test"})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestPlaceDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/places/ChIJ-test1", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "nationalPhoneNumber")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Place{
			ID:                  "ChIJ-test1",
			DisplayName:         DisplayName{Text: "Summit Roofing"},
			FormattedAddress:    "12 Main St, Frederick, MD 21701",
			NationalPhoneNumber: "(301) 555-0147",
			WebsiteURI:          "https://summitroofing.example",
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	place, err := client.PlaceDetails(context.Background(), "ChIJ-test1")

	require.NoError(t, err)
	assert.Equal(t, "Summit Roofing", place.DisplayName.Text)
	assert.Equal(t, "(301) 555-0147", place.NationalPhoneNumber)
}

func TestPlaceDetails_EmptyID(t *testing.T) {
	client := NewClient("test-key")
	place, err := client.PlaceDetails(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, place)
}

func TestPlaceDetails_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "not found"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	place, err := client.PlaceDetails(context.Background(), "ChIJ-missing")

	assert.Error(t, err)
	assert.Nil(t, place)
	assert.Contains(t, err.Error(), "404")
}

func TestStreetViewAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.NotEmpty(t, r.URL.Query().Get("location"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "OK"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithStreetViewBaseURL(srv.URL))
	ok, err := client.StreetViewAvailable(context.Background(), 39.4143, -77.4105)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStreetViewAvailable_NoImagery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithStreetViewBaseURL(srv.URL))
	ok, err := client.StreetViewAvailable(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStreetViewImageURL(t *testing.T) {
	u := StreetViewImageURL("test-key", 39.4143, -77.4105)
	assert.Contains(t, u, "maps.googleapis.com/maps/api/streetview")
	assert.Contains(t, u, "key=test-key")
	assert.Contains(t, u, "39.414300")
}
