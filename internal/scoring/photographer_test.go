package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revenue-radar/pkg/places"
)

func venuePlace() places.Place {
	return places.Place{
		ID:          "ChIJ-v1",
		DisplayName: places.DisplayName{Text: "Willow Creek Wedding Venue"},
		Location:    &places.LatLng{Latitude: 39.4143, Longitude: -77.4105},
		PrimaryType: "wedding_venue",
		Types:       []string{"wedding_venue", "event_venue"},
	}
}

func TestScorePhotographer_KeywordAndRating(t *testing.T) {
	p := venuePlace()
	p.Rating = 4.7
	p.UserRatingCount = 250

	l := ScorePhotographer(p, NicheProfileFor("wedding"), nil)
	require.NotNil(t, l)

	assert.Greater(t, l.Score, 0.0)
	assert.LessOrEqual(t, l.Score, 10.0)
	assert.Equal(t, SignalKeyword, l.Trigger)

	joined := ""
	for _, r := range l.Reasons {
		joined += r + "|"
	}
	assert.Contains(t, joined, "wedding")
	assert.Contains(t, joined, "Highly rated (4.7)")
	assert.Contains(t, joined, "250 reviews")
}

func TestScorePhotographer_RejectsIrrelevant(t *testing.T) {
	p := places.Place{
		ID:          "ChIJ-x",
		DisplayName: places.DisplayName{Text: "Jiffy Lube"},
		Location:    &places.LatLng{Latitude: 39.4, Longitude: -77.4},
		PrimaryType: "car_repair",
		Types:       []string{"car_repair"},
	}

	assert.Nil(t, ScorePhotographer(p, NicheProfileFor("wedding"), nil))
}

func TestScorePhotographer_HigherRatingScoresMore(t *testing.T) {
	lowRated := venuePlace()
	lowRated.Rating = 3.5

	highRated := venuePlace()
	highRated.Rating = 4.8

	ll := ScorePhotographer(lowRated, NicheProfileFor("wedding"), nil)
	lh := ScorePhotographer(highRated, NicheProfileFor("wedding"), nil)
	require.NotNil(t, ll)
	require.NotNil(t, lh)

	assert.Greater(t, lh.Score, ll.Score)
}

func TestScorePhotographer_ReviewTiersCapped(t *testing.T) {
	p := venuePlace()
	p.UserRatingCount = 50000

	l := ScorePhotographer(p, NicheProfileFor("wedding"), nil)
	require.NotNil(t, l)
	assert.LessOrEqual(t, l.Score, 10.0)
}

func TestScorePhotographer_FilterMonotonicity(t *testing.T) {
	p := venuePlace()
	p.Rating = 4.8
	p.UserRatingCount = 400

	for _, id := range []string{SignalKeyword, SignalHighRating, SignalReviews} {
		enabled := ScorePhotographer(p, NicheProfileFor("wedding"), Filters{})
		disabled := ScorePhotographer(p, NicheProfileFor("wedding"), Filters{id: false})
		require.NotNil(t, enabled)
		require.NotNil(t, disabled)
		assert.LessOrEqual(t, disabled.Score, enabled.Score)
	}
}

func TestNicheProfileFor_Fallback(t *testing.T) {
	assert.Equal(t, "general", NicheProfileFor("").Niche)
	assert.Equal(t, "general", NicheProfileFor("drone").Niche)
	assert.Equal(t, "portrait", NicheProfileFor("portrait").Niche)
}

func TestParseFilters(t *testing.T) {
	f := ParseFilters(`{"storm_proximity": false, "home_age": true}`)
	assert.False(t, f.Enabled(SignalStorm))
	assert.True(t, f.Enabled(SignalHomeAge))
	assert.True(t, f.Enabled("unlisted_signal"))

	// Malformed JSON degrades to the all-on map.
	f = ParseFilters(`{not json`)
	assert.True(t, f.Enabled(SignalStorm))

	f = ParseFilters("")
	assert.True(t, f.Enabled(SignalStorm))

	var nilFilters Filters
	assert.True(t, nilFilters.Enabled(SignalStorm))
}
