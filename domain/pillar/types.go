package pillar

import (
	"math"
	"strings"
)

// ID identifies one scoring dimension of an idea evaluation.
type ID string

const (
	Problem     ID = "problem"
	Market      ID = "market"
	Competition ID = "competition"
	Audience    ID = "audience"
	Feasibility ID = "feasibility"
	Pricing     ID = "pricing"
	GoToMarket  ID = "gtm"
)

// All returns the seven pillars in canonical evaluation order.
func All() []ID {
	return []ID{Problem, Market, Competition, Audience, Feasibility, Pricing, GoToMarket}
}

// DefaultWeights is the fixed weight table used for overall confidence.
// Weights sum to 1.0.
func DefaultWeights() map[ID]float64 {
	return map[ID]float64{
		Problem:     0.20,
		Market:      0.20,
		Competition: 0.10,
		Audience:    0.15,
		Feasibility: 0.15,
		Pricing:     0.10,
		GoToMarket:  0.10,
	}
}

// aliasTable maps common label variants to canonical pillar ids.
var aliasTable = map[string]ID{
	"problem":          Problem,
	"problem_fit":      Problem,
	"market":           Market,
	"market_demand":    Market,
	"market demand":    Market,
	"competition":      Competition,
	"competitive":      Competition,
	"audience":         Audience,
	"target_audience":  Audience,
	"target audience":  Audience,
	"feasibility":      Feasibility,
	"pricing":          Pricing,
	"monetisation":     Pricing,
	"monetization":     Pricing,
	"gtm":              GoToMarket,
	"go-to-market":     GoToMarket,
	"go_to_market":     GoToMarket,
	"go to market":     GoToMarket,
	"launch_readiness": GoToMarket,
}

// Normalize resolves a free-form pillar label to its canonical id.
// The second return is false when the label matches no known pillar.
func Normalize(label string) (ID, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	id, ok := aliasTable[key]
	return id, ok
}

// IsValid reports whether id is one of the seven canonical pillars.
func IsValid(id ID) bool {
	_, ok := DefaultWeights()[id]
	return ok
}

// ClampScore bounds a score to the [0,100] range.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RoundScore rounds a score to the nearest integer after clamping.
func RoundScore(score float64) int {
	return int(math.Round(ClampScore(score)))
}

// Weakest returns the pillar with the lowest score, ties broken by the
// order pillars appear in the ordered slice. The second return is false
// when scores is empty.
func Weakest(scores map[ID]float64, ordered []ID) (ID, bool) {
	var weakest ID
	found := false
	lowest := math.Inf(1)
	for _, id := range ordered {
		score, ok := scores[id]
		if !ok {
			continue
		}
		if score < lowest {
			lowest = score
			weakest = id
			found = true
		}
	}
	return weakest, found
}
