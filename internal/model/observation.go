package model

import (
	"time"
)

// Sentiment label thresholds. Scores at or above PositiveThreshold are
// positive, at or below NegativeThreshold negative, and neutral between.
// The trend engine recomputes buckets from the raw score with these same
// constants regardless of the stored label.
const (
	PositiveThreshold = 0.6
	NegativeThreshold = 0.4
)

// Label classifies a sentiment score.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Method records how an observation was derived.
type Method string

const (
	// MethodModel means the generative evaluator produced the observation.
	MethodModel Method = "model"
	// MethodRating means the observation was derived from the 1–5 rating
	// because no evaluator is provisioned.
	MethodRating Method = "rating_fallback"
	// MethodHeuristic means the evaluator call failed and a keyword
	// heuristic (or the neutral sentinel) produced the observation.
	MethodHeuristic Method = "heuristic_fallback"
)

// SentimentObservation is the authoritative sentiment judgment for one
// feedback item. Re-analysis overwrites, never merges.
type SentimentObservation struct {
	FeedbackID string    `json:"feedback_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	Score      float64   `json:"sentiment_score"` // [0,1], 1 = most positive
	Label      Label     `json:"sentiment_label"`
	Confidence float64   `json:"confidence"` // [0,1], low = degraded derivation
	Themes     []string  `json:"themes,omitempty"`
	Method     Method    `json:"method"`
	ModelID    string    `json:"model_id,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// LabelForScore maps a score to its label under the fixed thresholds.
func LabelForScore(score float64) Label {
	switch {
	case score >= PositiveThreshold:
		return LabelPositive
	case score <= NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// RatingSentiment maps a 1–5 rating to its deterministic (score, label)
// pair: 4–5 → 0.8/positive, 3 → 0.5/neutral, 1–2 → 0.2/negative.
func RatingSentiment(rating int) (float64, Label) {
	switch {
	case rating >= 4:
		return 0.8, LabelPositive
	case rating == 3:
		return 0.5, LabelNeutral
	default:
		return 0.2, LabelNegative
	}
}
