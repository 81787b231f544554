package runner

import (
	"time"

	"cdc-reconciler/core/reconcile"
)

// Recommendation levels derived from the discrepancy rate of a run.
const (
	RecommendationNone   = "no action required"
	RecommendationAuto   = "auto-repair is safe"
	RecommendationReview = "review repair actions before applying"
	RecommendationManual = "manual investigation required"
)

// Report is the durable result of one run.
type Report struct {
	RunID           string    `json:"run_id"`
	Table           string    `json:"table"`
	Mode            string    `json:"mode"`
	GeneratedAt     time.Time `json:"generated_at"`
	DurationSeconds float64   `json:"duration_seconds"`

	Summary         reconcile.Summary        `json:"summary"`
	Counts          *reconcile.BatchedCounts `json:"counts,omitempty"`
	MatchPercentage float64                  `json:"match_percentage"`
	Recommendation  string                   `json:"recommendation"`

	Actions       []reconcile.Action `json:"actions,omitempty"`
	ExecutedCount int                `json:"executed_count"`
	FailedCount   int                `json:"failed_count"`
}

// recommendation maps a run's discrepancy rate to an operator guidance
// level: under 1% divergence automated repair is considered safe, under
// 5% the generated actions deserve review, beyond that the divergence
// pattern itself needs investigation before repairing anything.
func recommendation(matchPercentage float64) string {
	rate := 100.0 - matchPercentage
	switch {
	case rate <= 0:
		return RecommendationNone
	case rate < 1.0:
		return RecommendationAuto
	case rate < 5.0:
		return RecommendationReview
	default:
		return RecommendationManual
	}
}
