// Package scoring converts raw candidates plus contextual signals into scored
// leads on a fixed 0–10 scale. Per-signal weights are absolute, so scores are
// comparable across searches; no post-hoc normalization is applied.
package scoring

import "strings"

// Industry selects the builder strategy and search profile.
type Industry string

// Known industries. Unrecognized values resolve to the residential profile.
const (
	IndustryRoofing            Industry = "roofing"
	IndustrySolar              Industry = "solar"
	IndustryHVAC               Industry = "hvac"
	IndustryResidentialService Industry = "residential_service"
	IndustryB2BService         Industry = "b2b_service"
	IndustryCommercialService  Industry = "commercial_service"
	IndustryRetail             Industry = "retail"
	IndustryPhotographer       Industry = "photographer"
	IndustryDefault            Industry = "default"
)

// Kind is the builder family an industry maps to.
type Kind int

const (
	KindResidential Kind = iota
	KindPlaces
	KindPhotographer
)

// Profile is the per-industry search configuration.
type Profile struct {
	Industry       Industry
	Kind           Kind
	MaxRadiusMiles float64
	// Query is the places text-search query for places-based industries.
	Query string
	// Categories are the place types accepted as an industry match.
	Categories []string
}

// profiles is the reviewed industry dispatch table. The default row is the
// residential profile; unrecognized industry strings fall through to it.
var profiles = map[Industry]Profile{
	IndustryRoofing:            {Industry: IndustryRoofing, Kind: KindResidential, MaxRadiusMiles: 15},
	IndustrySolar:              {Industry: IndustrySolar, Kind: KindResidential, MaxRadiusMiles: 15},
	IndustryHVAC:               {Industry: IndustryHVAC, Kind: KindResidential, MaxRadiusMiles: 15},
	IndustryResidentialService: {Industry: IndustryResidentialService, Kind: KindResidential, MaxRadiusMiles: 15},
	IndustryB2BService: {
		Industry: IndustryB2BService, Kind: KindPlaces, MaxRadiusMiles: 25,
		Query:      "business services",
		Categories: []string{"accounting", "lawyer", "insurance_agency", "consultant", "real_estate_agency", "finance", "corporate_office", "marketing_agency"},
	},
	IndustryCommercialService: {
		Industry: IndustryCommercialService, Kind: KindPlaces, MaxRadiusMiles: 25,
		Query:      "commercial services",
		Categories: []string{"general_contractor", "electrician", "plumber", "moving_company", "storage", "laundry", "car_repair"},
	},
	IndustryRetail: {
		Industry: IndustryRetail, Kind: KindPlaces, MaxRadiusMiles: 20,
		Query:      "retail stores",
		Categories: []string{"store", "clothing_store", "furniture_store", "hardware_store", "shopping_mall", "supermarket", "convenience_store"},
	},
	IndustryPhotographer: {
		Industry: IndustryPhotographer, Kind: KindPhotographer, MaxRadiusMiles: 30,
		Query:      "event venues",
		Categories: []string{"wedding_venue", "event_venue", "banquet_hall", "photographer", "art_gallery", "tourist_attraction", "park"},
	},
	IndustryDefault: {
		Industry: IndustryDefault, Kind: KindPlaces, MaxRadiusMiles: 20,
		Query:      "local businesses",
		Categories: []string{"store", "restaurant", "establishment", "point_of_interest"},
	},
}

// ProfileFor resolves an industry string to its profile. Unknown industries
// fall through to the residential profile rather than erroring; the empty
// string resolves to the default places profile.
func ProfileFor(industry string) Profile {
	switch industry {
	case "", string(IndustryDefault):
		return profiles[IndustryDefault]
	}
	if p, ok := profiles[Industry(industry)]; ok {
		return p
	}
	return profiles[IndustryResidentialService]
}

// TradeProfile shifts which residential signals dominate for a trade.
type TradeProfile struct {
	Trade string
	// Target home-age window: tracts whose median year built falls inside
	// [YearBuiltMin, YearBuiltMax] earn the full home-age weight.
	YearBuiltMin int
	YearBuiltMax int
	// Target income bracket in dollars.
	IncomeMin int
	IncomeMax int
	// Per-signal weights; the sum bounds the maximum residential score.
	HomeAgeWeight float64
	IncomeWeight  float64
	OwnerWeight   float64
	StormWeight   float64
	PermitWeight  float64
}

// tradeProfiles is keyed by trade name. "general" is the fallback.
var tradeProfiles = map[string]TradeProfile{
	"roofing": {
		Trade:        "roofing",
		YearBuiltMin: 1960, YearBuiltMax: 2005,
		IncomeMin: 55000, IncomeMax: 160000,
		HomeAgeWeight: 2.5, IncomeWeight: 1.0, OwnerWeight: 1.5, StormWeight: 3.5, PermitWeight: 1.5,
	},
	"solar": {
		Trade:        "solar",
		YearBuiltMin: 1975, YearBuiltMax: 2015,
		IncomeMin: 80000, IncomeMax: 250000,
		HomeAgeWeight: 1.5, IncomeWeight: 3.0, OwnerWeight: 2.5, StormWeight: 0.5, PermitWeight: 2.5,
	},
	"hvac": {
		Trade:        "hvac",
		YearBuiltMin: 1970, YearBuiltMax: 2010,
		IncomeMin: 50000, IncomeMax: 180000,
		HomeAgeWeight: 3.0, IncomeWeight: 1.5, OwnerWeight: 1.5, StormWeight: 1.0, PermitWeight: 3.0,
	},
	"general": {
		Trade:        "general",
		YearBuiltMin: 1950, YearBuiltMax: 2010,
		IncomeMin: 45000, IncomeMax: 200000,
		HomeAgeWeight: 2.0, IncomeWeight: 2.0, OwnerWeight: 2.0, StormWeight: 2.0, PermitWeight: 2.0,
	},
}

// TradeProfileFor resolves a trade string, defaulting to "general".
func TradeProfileFor(trade string) TradeProfile {
	t := strings.ToLower(strings.TrimSpace(trade))
	if p, ok := tradeProfiles[t]; ok {
		return p
	}
	return tradeProfiles["general"]
}

// NicheProfile is a photographer sub-profile with a curated keyword list.
type NicheProfile struct {
	Niche    string
	Keywords []string
}

var nicheProfiles = map[string]NicheProfile{
	"wedding": {
		Niche:    "wedding",
		Keywords: []string{"wedding", "bridal", "banquet", "chapel", "venue", "event"},
	},
	"portrait": {
		Niche:    "portrait",
		Keywords: []string{"studio", "portrait", "school", "family", "park", "garden"},
	},
	"real_estate": {
		Niche:    "real_estate",
		Keywords: []string{"real_estate", "realty", "property", "broker", "staging"},
	},
	"general": {
		Niche:    "general",
		Keywords: []string{"venue", "event", "studio", "gallery", "park", "attraction"},
	},
}

// NicheProfileFor resolves a photographer niche, defaulting to "general".
func NicheProfileFor(niche string) NicheProfile {
	n := strings.ToLower(strings.TrimSpace(niche))
	if p, ok := nicheProfiles[n]; ok {
		return p
	}
	return nicheProfiles["general"]
}
