// Package insights holds the analysis core: sentiment derivation, the
// trend engine, the recommendation rules, and report generation.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/internal/store"
	"github.com/sells-group/insights-cli/pkg/anthropic"
)

const analysisSystemPrompt = `You analyze customer feedback for sentiment.
Respond with a JSON object containing exactly these fields:
- sentiment_score: float between 0 and 1 (1 being most positive)
- sentiment_label: "positive", "negative", or "neutral"
- confidence: float between 0 and 1 indicating confidence in the analysis
- key_themes: array of short strings naming the main themes mentioned
Respond only with the JSON object, no other text.`

// AnalyzerConfig tunes the evaluator call path.
type AnalyzerConfig struct {
	Model        string
	MaxTokens    int64
	Timeout      time.Duration
	HistoryLimit int
	Retry        resilience.RetryConfig
}

func (c AnalyzerConfig) withDefaults() AnalyzerConfig {
	if c.Model == "" {
		c.Model = "claude-haiku-4-5-20251001"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 5
	}
	return c
}

// Analyzer derives sentiment observations from feedback items. A nil
// evaluator means none is provisioned; every item then takes the
// rating-based path.
type Analyzer struct {
	store     store.Store
	evaluator anthropic.Client
	cfg       AnalyzerConfig
}

// NewAnalyzer creates an analyzer. evaluator may be nil.
func NewAnalyzer(st store.Store, evaluator anthropic.Client, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		store:     st,
		evaluator: evaluator,
		cfg:       cfg.withDefaults(),
	}
}

// Analyze derives the sentiment observation for one feedback item and
// stores it, overwriting any prior observation for the same feedback id.
// Evaluator failures degrade to a fallback observation and never surface
// as errors; only missing input or a storage failure does.
func (a *Analyzer) Analyze(ctx context.Context, item *model.FeedbackItem) (*model.SentimentObservation, error) {
	if item == nil || item.ID == "" {
		return nil, eris.New("insights: feedback id is required")
	}

	obs := a.derive(ctx, item)
	if err := a.store.PutObservation(ctx, obs); err != nil {
		return nil, eris.Wrapf(err, "insights: store observation for %s", item.ID)
	}

	zap.L().Info("analyzed feedback",
		zap.String("feedback_id", item.ID),
		zap.Float64("score", obs.Score),
		zap.String("label", string(obs.Label)),
		zap.String("method", string(obs.Method)))
	return obs, nil
}

func (a *Analyzer) derive(ctx context.Context, item *model.FeedbackItem) *model.SentimentObservation {
	if a.evaluator == nil {
		return a.ratingObservation(item)
	}

	obs, err := a.evaluate(ctx, item)
	if err != nil {
		zap.L().Warn("evaluator failed, using fallback",
			zap.String("feedback_id", item.ID),
			zap.Error(err))
		return a.failureObservation(item)
	}
	return obs
}

// evaluate runs the primary model path: prompt with recent customer
// history, bounded retry, strict JSON parse.
func (a *Analyzer) evaluate(ctx context.Context, item *model.FeedbackItem) (*model.SentimentObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	prompt := a.buildPrompt(ctx, item)

	cfg := a.cfg.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("anthropic", "analyze")
	}
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.evaluator.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.cfg.Model,
			MaxTokens: a.cfg.MaxTokens,
			System:    analysisSystemPrompt,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(a.cfg.Model, "sentiment analysis")

	eval, err := parseEvaluation(resp.Text())
	if err != nil {
		return nil, err
	}

	label := model.Label(eval.SentimentLabel)
	if label != model.LabelPositive && label != model.LabelNeutral && label != model.LabelNegative {
		label = model.LabelForScore(*eval.SentimentScore)
	}

	return &model.SentimentObservation{
		FeedbackID: item.ID,
		CustomerID: item.CustomerID,
		Score:      *eval.SentimentScore,
		Label:      label,
		Confidence: clamp01(eval.Confidence),
		Themes:     eval.KeyThemes,
		Method:     model.MethodModel,
		ModelID:    a.cfg.Model,
		AnalyzedAt: time.Now().UTC(),
	}, nil
}

// buildPrompt assembles the user prompt, including the customer's recent
// observation history when one exists. History lookup is best effort; a
// store error here degrades to a history-free prompt.
func (a *Analyzer) buildPrompt(ctx context.Context, item *model.FeedbackItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feedback (channel: %s): %s\n", item.Channel, item.Text)
	if item.HasRating() {
		fmt.Fprintf(&b, "Customer rating: %d/5\n", *item.Rating)
	}

	if item.CustomerID != "" {
		history, err := a.store.ListObservationsByCustomer(ctx, item.CustomerID, a.cfg.HistoryLimit, true)
		if err != nil {
			zap.L().Warn("history lookup failed",
				zap.String("customer_id", item.CustomerID),
				zap.Error(err))
		} else if len(history) > 0 {
			b.WriteString("\nPrevious sentiment history for this customer:\n")
			for _, h := range history {
				fmt.Fprintf(&b, "- score %.2f (%s) at %s\n",
					h.Score, h.Label, h.AnalyzedAt.Format(time.RFC3339))
			}
		}
	}
	return b.String()
}

// evaluation is the JSON shape the evaluator is instructed to return.
type evaluation struct {
	SentimentScore *float64 `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
	Confidence     float64  `json:"confidence"`
	KeyThemes      []string `json:"key_themes"`
}

// parseEvaluation extracts the JSON object from the evaluator's text.
// Anything that does not contain a valid object with an in-range score
// is a parse failure, which the caller treats like a call failure.
func parseEvaluation(text string) (*evaluation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("insights: evaluator response contains no JSON object")
	}

	var eval evaluation
	if err := json.Unmarshal([]byte(text[start:end+1]), &eval); err != nil {
		return nil, eris.Wrap(err, "insights: parse evaluator response")
	}
	if eval.SentimentScore == nil {
		return nil, eris.New("insights: evaluator response missing sentiment_score")
	}
	if *eval.SentimentScore < 0 || *eval.SentimentScore > 1 {
		return nil, eris.Errorf("insights: sentiment_score %v out of range", *eval.SentimentScore)
	}
	return &eval, nil
}

// ratingObservation is the offline path used when no evaluator is
// provisioned: deterministic sentiment from the 1-5 rating, or the
// neutral sentinel when the rating is absent.
func (a *Analyzer) ratingObservation(item *model.FeedbackItem) *model.SentimentObservation {
	obs := &model.SentimentObservation{
		FeedbackID: item.ID,
		CustomerID: item.CustomerID,
		Method:     model.MethodRating,
		AnalyzedAt: time.Now().UTC(),
	}
	if item.HasRating() {
		obs.Score, obs.Label = model.RatingSentiment(*item.Rating)
		obs.Confidence = 0.3
	} else {
		obs.Score = model.NeutralSentinel
		obs.Label = model.LabelNeutral
		obs.Confidence = 0
	}
	return obs
}

// failureObservation absorbs an evaluator call or parse failure. With a
// rating present the deterministic rating mapping wins; otherwise the
// neutral sentinel plus whatever themes the keyword heuristic finds.
func (a *Analyzer) failureObservation(item *model.FeedbackItem) *model.SentimentObservation {
	if item.HasRating() {
		return a.ratingObservation(item)
	}

	return &model.SentimentObservation{
		FeedbackID: item.ID,
		CustomerID: item.CustomerID,
		Score:      model.NeutralSentinel,
		Label:      model.LabelNeutral,
		Confidence: 0.1,
		Themes:     append([]string{"error"}, ExtractThemes(item.Text)...),
		Method:     model.MethodHeuristic,
		AnalyzedAt: time.Now().UTC(),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
