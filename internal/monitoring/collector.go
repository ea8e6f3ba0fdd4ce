// Package monitoring provides the summary dashboard snapshot and the
// background sentiment health checks.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/store"
)

// Activity is one entry in the recent activity feed.
type Activity struct {
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// MetricsSnapshot holds a point-in-time view of the feedback pipeline.
type MetricsSnapshot struct {
	TotalFeedback     int                `json:"total_feedback"`
	TotalObservations int                `json:"total_observations"` // within lookback window
	AverageSentiment  float64            `json:"average_sentiment"`  // within lookback; 0.5 sentinel when empty
	Distribution      model.Distribution `json:"distribution"`
	LastHourCount     int                `json:"last_hour_count"`
	RecentActivity    []Activity         `json:"recent_activity"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers snapshot metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		AverageSentiment: model.NeutralSentinel,
		LookbackHours:    lookbackHours,
		CollectedAt:      now,
	}

	total, err := c.store.CountFeedback(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count feedback")
	}
	snap.TotalFeedback = total

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	observations, err := c.store.ScanObservations(ctx, cutoff, now.Add(time.Minute), "")
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: scan observations")
	}

	snap.TotalObservations = len(observations)
	lastHour := now.Add(-time.Hour)
	var sum float64
	for _, o := range observations {
		sum += o.Score
		switch model.LabelForScore(o.Score) {
		case model.LabelPositive:
			snap.Distribution.Positive++
		case model.LabelNegative:
			snap.Distribution.Negative++
		default:
			snap.Distribution.Neutral++
		}
		if !o.AnalyzedAt.Before(lastHour) {
			snap.LastHourCount++
		}
	}
	if len(observations) > 0 {
		snap.AverageSentiment = sum / float64(len(observations))
	}

	recent, err := c.store.ListFeedback(ctx, store.FeedbackFilter{Limit: 10})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list recent feedback")
	}
	for _, item := range recent {
		snap.RecentActivity = append(snap.RecentActivity, Activity{
			Description: fmt.Sprintf("Feedback %s received via %s", item.ID, item.Channel),
			Timestamp:   item.ReceivedAt,
		})
	}

	return snap, nil
}
