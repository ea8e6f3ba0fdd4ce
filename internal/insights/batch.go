package insights

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insights-cli/internal/model"
)

// BatchResult summarizes one batch analysis run.
type BatchResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// AnalyzeBatch runs the analyzer over a set of feedback items with
// bounded concurrency. Per-item failures are counted and logged, never
// abort the rest of the batch. The returned error is reserved for
// context cancellation.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, items []model.FeedbackItem, concurrency int) (*BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 5
	}

	var mu sync.Mutex
	result := &BatchResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range items {
		item := &items[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := a.Analyze(ctx, item)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Error("batch item failed",
					zap.String("feedback_id", item.ID),
					zap.Error(err))
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, item.ID)
				return nil
			}
			result.Processed++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}
