package pillar

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Recommendation is the derived verdict of an aggregated evaluation.
type Recommendation string

const (
	RecommendBuild  Recommendation = "build"
	RecommendRevise Recommendation = "revise"
	RecommendDrop   Recommendation = "drop"
)

// Thresholds for the three-way recommendation and for counting a pillar
// as "strong".
const (
	BuildThreshold  = 70.0
	ReviseThreshold = 40.0
	StrongThreshold = 70.0
)

// Summary is the result of aggregating a set of pillar scores.
type Summary struct {
	OverallConfidence int            `json:"overall_confidence"`
	Recommendation    Recommendation `json:"recommendation"`
	StrongCount       int            `json:"strong_count"`
}

// Aggregate computes the weighted overall confidence and recommendation
// for a score map. It is pure arithmetic: identical inputs always yield
// identical results. Pillars absent from the weight table contribute
// nothing; pillars absent from the score map are skipped.
func Aggregate(scores map[ID]float64, weights map[ID]float64) Summary {
	ws := make([]float64, 0, len(scores))
	ss := make([]float64, 0, len(scores))
	strong := 0

	for _, id := range All() {
		score, ok := scores[id]
		if !ok {
			continue
		}
		score = ClampScore(score)
		if score >= StrongThreshold {
			strong++
		}
		weight, ok := weights[id]
		if !ok {
			continue
		}
		ws = append(ws, weight)
		ss = append(ss, score)
	}

	confidence := 0
	if len(ws) > 0 {
		confidence = int(math.Round(floats.Dot(ws, ss)))
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return Summary{
		OverallConfidence: confidence,
		Recommendation:    Recommend(float64(confidence)),
		StrongCount:       strong,
	}
}

// AggregateDefault aggregates with the fixed default weight table.
func AggregateDefault(scores map[ID]float64) Summary {
	return Aggregate(scores, DefaultWeights())
}

// Recommend maps a confidence value to the three-way verdict.
func Recommend(confidence float64) Recommendation {
	switch {
	case confidence >= BuildThreshold:
		return RecommendBuild
	case confidence >= ReviseThreshold:
		return RecommendRevise
	default:
		return RecommendDrop
	}
}
