package scoring

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/revenue-radar/internal/lead"
	"github.com/sells-group/revenue-radar/pkg/places"
)

// Photographer signal weights. Unlike places-based scoring, this variant
// rewards well-rated, busy venues: those are the locations a photographer
// books work at.
const (
	highRatingWeight = 3.0
	reviewTierWeight = 1.5
	keywordWeight    = 3.5

	highRatingFloor = 4.3
	reviewTierSize  = 100
	maxReviewTiers  = 2
)

// ScorePhotographer scores a venue candidate against a niche profile.
// Candidates with no keyword or category relevance at all are rejected.
func ScorePhotographer(p places.Place, niche NicheProfile, filters Filters) *lead.ScoredLead {
	if p.Location == nil {
		return nil
	}

	matched := matchedKeywords(p, niche.Keywords)
	if len(matched) == 0 {
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
		if weight <= 0 || !filters.Enabled(id) {
			return
		}
		l.Score += weight
		l.Reasons = append(l.Reasons, reason)
		if weight > top {
			top = weight
			l.Trigger = id
		}
	}

	add(SignalKeyword, keywordWeight,
		fmt.Sprintf("Matches %s keywords: %s", niche.Niche, strings.Join(matched, ", ")))

	if p.Rating >= highRatingFloor {
		add(SignalHighRating, highRatingWeight, fmt.Sprintf("Highly rated (%.1f)", p.Rating))
	}

	if p.UserRatingCount > 0 {
		tiers := p.UserRatingCount / reviewTierSize
		if tiers > maxReviewTiers {
			tiers = maxReviewTiers
		}
		if tiers > 0 {
			add(SignalReviews, reviewTierWeight*float64(tiers),
				fmt.Sprintf("%d reviews", p.UserRatingCount))
		}
	}

	l.Score = clampScore(l.Score)
	return l
}

// matchedKeywords returns the niche keywords found in the place's name or
// type list.
func matchedKeywords(p places.Place, keywords []string) []string {
	haystack := strings.ToLower(p.DisplayName.Text + " " + p.PrimaryType + " " + strings.Join(p.Types, " "))
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
