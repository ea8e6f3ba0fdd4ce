package model

import (
	"time"
)

// Direction classifies the sentiment trend over a window.
type Direction string

const (
	DirectionImproving    Direction = "improving"
	DirectionDeclining    Direction = "declining"
	DirectionStable       Direction = "stable"
	DirectionInsufficient Direction = "insufficient_data"
)

// NeutralSentinel is the average_sentiment reported for an empty window.
// It marks insufficient data, not a measured value.
const NeutralSentinel = 0.5

// Distribution counts observations per sentiment bucket. Buckets are
// recomputed from raw scores, so the three counts always sum to the
// window's sample count.
type Distribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns the sum of all buckets.
func (d Distribution) Total() int {
	return d.Positive + d.Neutral + d.Negative
}

// ReportCriteria describes what a trend report covers.
type ReportCriteria struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CustomerID string    `json:"customer_id,omitempty"`
}

// TrendReport is a point-in-time aggregate over [Start, End). Immutable
// once produced.
type TrendReport struct {
	Criteria         ReportCriteria `json:"criteria"`
	SampleCount      int            `json:"sample_count"`
	AverageSentiment float64        `json:"average_sentiment"` // 3 decimals; 0.5 sentinel when empty
	Direction        Direction      `json:"direction"`
	Distribution     Distribution   `json:"distribution"`
	Recommendations  []string       `json:"recommendations"`
	Partial          bool           `json:"partial,omitempty"` // true when the scan could not read the full window
}

// ReportArtifact is a persisted TrendReport with audit fields. Write-once.
type ReportArtifact struct {
	ID          string      `json:"report_id"`
	Report      TrendReport `json:"report"`
	GeneratedAt time.Time   `json:"generated_at"`
}
