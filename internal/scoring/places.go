package scoring

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/revenue-radar/internal/lead"
	"github.com/sells-group/revenue-radar/pkg/places"
)

// Distressed-business thresholds for places-based scoring.
const (
	lowRatingThreshold = 3.8
	lowReviewThreshold = 20
)

// Places-based signal weights.
const (
	categoryMatchWeight = 2.0
	lowRatingWeight     = 3.0
	lowReviewsWeight    = 2.0
	noWebsiteWeight     = 2.5
)

// ScorePlace scores a business candidate for a places-based industry
// (b2b/commercial/retail). Candidates that do not match the industry's
// categories at all are rejected with a nil return and excluded from results.
func ScorePlace(p places.Place, profile Profile, filters Filters) *lead.ScoredLead {
	if p.Location == nil {
		return nil
	}
	if !matchesCategory(p, profile.Categories) {
		return nil
	}

	l := &lead.ScoredLead{
		ID:          uuid.NewString(),
		Lat:         p.Location.Latitude,
		Lng:         p.Location.Longitude,
		Name:        p.DisplayName.Text,
		Address:     p.FormattedAddress,
		PlaceID:     p.ID,
		Category:    p.PrimaryType,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingCount,
		Website:     p.WebsiteURI,
		Phone:       p.NationalPhoneNumber,
	}

	var top float64
	add := func(id string, weight float64, reason string) {
		if !filters.Enabled(id) {
			return
		}
		l.Score += weight
		l.Reasons = append(l.Reasons, reason)
		if weight > top {
			top = weight
			l.Trigger = id
		}
	}

	add(SignalCategory, categoryMatchWeight, fmt.Sprintf("Matches %s vertical", profile.Industry))

	// Missing rating data contributes nothing; a zero rating means "unrated",
	// not "terrible".
	if p.Rating > 0 && p.Rating < lowRatingThreshold {
		add(SignalLowRating, lowRatingWeight, fmt.Sprintf("Low rating (%.1f)", p.Rating))
	}
	if p.UserRatingCount > 0 && p.UserRatingCount < lowReviewThreshold {
		add(SignalLowReviews, lowReviewsWeight, fmt.Sprintf("Only %d reviews", p.UserRatingCount))
	}
	if p.WebsiteURI == "" {
		add(SignalNoWebsite, noWebsiteWeight, "No website")
	}

	l.Score = clampScore(l.Score)
	return l
}

// matchesCategory reports whether any of the place's types matches the
// profile's accepted categories. Matching is substring-based in both
// directions so "clothing_store" matches the "store" category.
func matchesCategory(p places.Place, categories []string) bool {
	if len(categories) == 0 {
		return true
	}
	candidates := append([]string{p.PrimaryType}, p.Types...)
	for _, t := range candidates {
		if t == "" {
			continue
		}
		for _, c := range categories {
			if strings.Contains(t, c) || strings.Contains(c, t) {
				return true
			}
		}
	}
	return false
}

// clampScore bounds a score to [0, 10].
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}
