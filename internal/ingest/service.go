// Package ingest accepts feedback submissions and batch imports, and
// triggers analysis when auto-processing is enabled.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/insights"
	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/store"
)

// Submission is one incoming feedback item before it gets an identity.
type Submission struct {
	CustomerID string         `json:"customer_id,omitempty"`
	Text       string         `json:"feedback_text"`
	Channel    string         `json:"channel"`
	Rating     *int           `json:"rating,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Origin     model.Origin   `json:"-"`
}

// Validate checks the submission's required fields and rating range.
func (sub Submission) Validate() error {
	if sub.Text == "" {
		return eris.New("ingest: feedback_text is required")
	}
	if sub.Channel == "" {
		return eris.New("ingest: channel is required")
	}
	if sub.Rating != nil && (*sub.Rating < 1 || *sub.Rating > 5) {
		return eris.Errorf("ingest: rating %d out of range 1-5", *sub.Rating)
	}
	return nil
}

// Service validates and persists feedback submissions.
type Service struct {
	store    store.Store
	analyzer *insights.Analyzer
}

// NewService creates an ingestion service. analyzer may be nil, in which
// case auto-processing is unavailable regardless of settings.
func NewService(st store.Store, analyzer *insights.Analyzer) *Service {
	return &Service{store: st, analyzer: analyzer}
}

// Submit validates the submission, assigns identity, persists it, and
// fires analysis asynchronously when auto-processing is on. CustomerID
// is optional; anonymous feedback is accepted.
func (s *Service) Submit(ctx context.Context, sub Submission) (*model.FeedbackItem, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	origin := sub.Origin
	if origin == "" {
		origin = model.OriginDirect
	}

	item := &model.FeedbackItem{
		ID:         uuid.NewString(),
		CustomerID: sub.CustomerID,
		Text:       sub.Text,
		Channel:    sub.Channel,
		Rating:     sub.Rating,
		Origin:     origin,
		Metadata:   sub.Metadata,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.store.PutFeedback(ctx, item); err != nil {
		return nil, eris.Wrap(err, "ingest: store feedback")
	}

	zap.L().Info("feedback ingested",
		zap.String("feedback_id", item.ID),
		zap.String("channel", item.Channel),
		zap.String("origin", string(item.Origin)))

	if settings := s.settings(ctx); settings.AutoProcess && s.analyzer != nil {
		s.trigger(item, settings.MaxProcessingTime)
	}
	return item, nil
}

// Process analyzes one stored feedback item by id. Safe to call more
// than once for the same id: a re-analysis overwrites the prior
// observation.
func (s *Service) Process(ctx context.Context, feedbackID string) (*model.SentimentObservation, error) {
	if s.analyzer == nil {
		return nil, eris.New("ingest: no analyzer configured")
	}
	item, err := s.store.GetFeedback(ctx, feedbackID)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: load feedback %s", feedbackID)
	}
	return s.analyzer.Analyze(ctx, item)
}

// trigger fires analysis without blocking the submission path. The
// delivery contract is at-least-once; a duplicate trigger is harmless
// because analysis overwrites.
func (s *Service) trigger(item *model.FeedbackItem, maxProcessing time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), maxProcessing)
		defer cancel()

		if _, err := s.analyzer.Analyze(ctx, item); err != nil {
			zap.L().Error("auto-process failed",
				zap.String("feedback_id", item.ID),
				zap.Error(err))
		}
	}()
}

// settings reads the runtime settings table, falling back to defaults
// when the read fails. Re-read per submission so toggles apply without
// restarts.
func (s *Service) settings(ctx context.Context) config.Settings {
	raw, err := s.store.AllSettings(ctx)
	if err != nil {
		zap.L().Warn("settings read failed, using defaults", zap.Error(err))
		return config.DefaultSettings()
	}
	return config.ParseSettings(raw)
}
