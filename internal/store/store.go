package store

import (
	"context"
	"time"

	"github.com/sells-group/insights-cli/internal/model"
)

// FeedbackFilter specifies criteria for listing feedback items.
type FeedbackFilter struct {
	CustomerID    string    `json:"customer_id,omitempty"`
	Channel       string    `json:"channel,omitempty"`
	Origin        string    `json:"origin,omitempty"`
	ReceivedAfter time.Time `json:"received_after,omitempty"`
	Limit         int       `json:"limit,omitempty"`
	Offset        int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for the insights pipeline.
// Feedback is append-only; observations overwrite by feedback id (last
// writer wins); reports are write-once artifacts; settings are a flat
// key→string table.
type Store interface {
	// Feedback
	PutFeedback(ctx context.Context, item *model.FeedbackItem) error
	GetFeedback(ctx context.Context, feedbackID string) (*model.FeedbackItem, error)
	ListFeedback(ctx context.Context, filter FeedbackFilter) ([]model.FeedbackItem, error)
	CountFeedback(ctx context.Context) (int, error)

	// Observations
	PutObservation(ctx context.Context, obs *model.SentimentObservation) error
	GetObservation(ctx context.Context, feedbackID string) (*model.SentimentObservation, error)
	ListObservationsByCustomer(ctx context.Context, customerID string, limit int, newestFirst bool) ([]model.SentimentObservation, error)
	// ScanObservations returns observations with analyzed_at in [start, end),
	// ordered chronologically. An empty customerID means no customer filter.
	ScanObservations(ctx context.Context, start, end time.Time, customerID string) ([]model.SentimentObservation, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, bool, error)
	AllSettings(ctx context.Context) (map[string]string, error)
	PutSetting(ctx context.Context, key, value string) error

	// Report artifacts
	PutReport(ctx context.Context, artifact *model.ReportArtifact) error
	GetReport(ctx context.Context, reportID string) (*model.ReportArtifact, error)
	ListReports(ctx context.Context, limit int) ([]model.ReportArtifact, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
