package scoring

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sells-group/revenue-radar/internal/geo"
	"github.com/sells-group/revenue-radar/internal/lead"
)

// stormRangeMiles is the distance past which a storm contributes zero.
const stormRangeMiles = 15.0

// ownerOccupiedFloor is the owner-occupancy percentage that earns the full
// owner signal weight.
const ownerOccupiedFloor = 60

// ResidentialInput bundles the contextual signals for one sampled point.
type ResidentialInput struct {
	Lat float64
	Lng float64
	// Tract is nil when no tract data could be resolved for the point.
	Tract *lead.CensusTractData
	// Storms is the full storm set for the search area.
	Storms []lead.StormEvent
	// PermitActivity is the estimated nearby permit signal.
	PermitActivity bool
	// City and State are from reverse geocoding, may be empty.
	City  string
	State string
}

// ScoreResidential scores a sampled residential point against a trade
// profile. Missing data for any signal contributes zero and is omitted from
// the reason list.
func ScoreResidential(in ResidentialInput, trade TradeProfile, filters Filters, currentYear int) *lead.ScoredLead {
	l := &lead.ScoredLead{
		ID:    uuid.NewString(),
		Lat:   in.Lat,
		Lng:   in.Lng,
		City:  in.City,
		State: in.State,
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

	if in.Tract != nil {
		l.TractID = in.Tract.TractID
		l.MedianYearBuilt = in.Tract.MedianYearBuilt
		l.MedianIncome = in.Tract.MedianIncome
		l.OwnerOccupiedPct = in.Tract.OwnerOccupiedPct
		if in.Tract.MedianYearBuilt > 0 {
			l.PropertyAge = currentYear - in.Tract.MedianYearBuilt
		}

		if yb := in.Tract.MedianYearBuilt; yb >= trade.YearBuiltMin && yb <= trade.YearBuiltMax {
			add(SignalHomeAge, trade.HomeAgeWeight,
				fmt.Sprintf("Homes built around %d fit the %s window", yb, trade.Trade))
		}
		if inc := in.Tract.MedianIncome; inc >= trade.IncomeMin && inc <= trade.IncomeMax {
			add(SignalIncome, trade.IncomeWeight,
				fmt.Sprintf("Median income $%d in target bracket", inc))
		}
		if pct := in.Tract.OwnerOccupiedPct; pct >= ownerOccupiedFloor {
			add(SignalOwner, trade.OwnerWeight,
				fmt.Sprintf("%d%% owner-occupied", pct))
		}
	}

	if dist, event := nearestStorm(in.Lat, in.Lng, in.Storms); event != nil {
		miles := geo.MetersToMiles(dist)
		if miles <= stormRangeMiles {
			// Linear decay with distance; a storm on top of the point earns
			// the full weight, one at 15 miles earns nothing.
			weight := trade.StormWeight * (1 - miles/stormRangeMiles)
			if weight > 0 {
				l.StormHit = true
				add(SignalStorm, weight,
					fmt.Sprintf("%s %.1f mi away", event.Type, miles))
			}
		}
	}

	if in.PermitActivity {
		l.PermitActivity = true
		add(SignalPermits, trade.PermitWeight, "Recent permit activity nearby")
	}

	l.Score = clampScore(l.Score)
	return l
}

// nearestStorm returns the distance in meters to the closest storm event, or
// nil when there are none.
func nearestStorm(lat, lng float64, storms []lead.StormEvent) (float64, *lead.StormEvent) {
	var best *lead.StormEvent
	bestDist := 0.0
	for i := range storms {
		d := geo.Distance(lat, lng, storms[i].Lat, storms[i].Lng)
		if best == nil || d < bestDist {
			best = &storms[i]
			bestDist = d
		}
	}
	return bestDist, best
}
