package scoring

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Signal ids, toggleable per request through the filters map.
const (
	SignalStorm      = "storm_proximity"
	SignalHomeAge    = "home_age"
	SignalIncome     = "income"
	SignalOwner      = "owner_occupied"
	SignalPermits    = "permits"
	SignalLowRating  = "low_rating"
	SignalLowReviews = "low_reviews"
	SignalNoWebsite  = "no_website"
	SignalCategory   = "category_match"
	SignalHighRating = "high_rating"
	SignalReviews    = "review_volume"
	SignalKeyword    = "keyword_match"
)

// Filters maps signal id to enabled. Signals absent from the map are on; a
// signal set to false contributes zero regardless of its computed value.
type Filters map[string]bool

// Enabled reports whether a signal should contribute to the score.
func (f Filters) Enabled(id string) bool {
	if f == nil {
		return true
	}
	v, ok := f[id]
	if !ok {
		return true
	}
	return v
}

// ParseFilters decodes the request's JSON filter map. Malformed JSON is
// tolerated: it logs at debug and yields an empty (all-on) map so the request
// never fails on a bad filter string.
func ParseFilters(raw string) Filters {
	if raw == "" {
		return Filters{}
	}
	var f Filters
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		zap.L().Debug("ignoring malformed filters", zap.String("raw", raw), zap.Error(err))
		return Filters{}
	}
	if f == nil {
		return Filters{}
	}
	return f
}
