package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

func obsAt(score float64, at time.Time) model.SentimentObservation {
	return model.SentimentObservation{
		FeedbackID: at.Format("20060102T150405"),
		Score:      score,
		Label:      model.LabelForScore(score),
		AnalyzedAt: at,
	}
}

func window() model.ReportCriteria {
	return model.ReportCriteria{
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputeTrendEmptyWindow(t *testing.T) {
	report := ComputeTrend(window(), nil)

	assert.Equal(t, 0, report.SampleCount)
	assert.Equal(t, 0.5, report.AverageSentiment)
	assert.Equal(t, model.DirectionInsufficient, report.Direction)
	assert.Equal(t, model.Distribution{}, report.Distribution)
}

func TestComputeTrendSingleObservation(t *testing.T) {
	base := window().Start
	report := ComputeTrend(window(), []model.SentimentObservation{obsAt(0.9, base)})

	assert.Equal(t, 1, report.SampleCount)
	assert.Equal(t, 0.9, report.AverageSentiment)
	assert.Equal(t, model.DirectionInsufficient, report.Direction,
		"one observation never establishes a direction")
	assert.Equal(t, model.Distribution{Positive: 1}, report.Distribution)
}

func TestComputeTrendDirections(t *testing.T) {
	base := window().Start
	tests := []struct {
		name   string
		scores []float64
		want   model.Direction
	}{
		{"improving", []float64{0.2, 0.3, 0.8, 0.9}, model.DirectionImproving},
		{"declining", []float64{0.9, 0.8, 0.3, 0.2}, model.DirectionDeclining},
		{"stable", []float64{0.5, 0.5, 0.55, 0.5}, model.DirectionStable},
		{"shift exactly at band is stable", []float64{0.5, 0.6}, model.DirectionStable},
		{"odd count splits floor first", []float64{0.2, 0.8, 0.8}, model.DirectionImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := make([]model.SentimentObservation, len(tt.scores))
			for i, s := range tt.scores {
				obs[i] = obsAt(s, base.Add(time.Duration(i)*time.Hour))
			}
			report := ComputeTrend(window(), obs)
			assert.Equal(t, tt.want, report.Direction)
		})
	}
}

func TestComputeTrendDirectionUsesChronologicalOrder(t *testing.T) {
	base := window().Start
	// Shuffled input: latest-first. Chronologically scores go 0.2 → 0.9.
	obs := []model.SentimentObservation{
		obsAt(0.9, base.Add(3*time.Hour)),
		obsAt(0.2, base),
		obsAt(0.8, base.Add(2*time.Hour)),
		obsAt(0.3, base.Add(time.Hour)),
	}
	report := ComputeTrend(window(), obs)
	assert.Equal(t, model.DirectionImproving, report.Direction)
}

func TestComputeTrendDistributionRecomputedFromScore(t *testing.T) {
	base := window().Start
	// Stored labels disagree with the scores; buckets must follow scores.
	obs := []model.SentimentObservation{
		{FeedbackID: "a", Score: 0.9, Label: model.LabelNegative, AnalyzedAt: base},
		{FeedbackID: "b", Score: 0.6, Label: model.LabelNeutral, AnalyzedAt: base.Add(time.Hour)},
		{FeedbackID: "c", Score: 0.4, Label: model.LabelPositive, AnalyzedAt: base.Add(2 * time.Hour)},
		{FeedbackID: "d", Score: 0.5, Label: model.LabelPositive, AnalyzedAt: base.Add(3 * time.Hour)},
	}
	report := ComputeTrend(window(), obs)

	assert.Equal(t, model.Distribution{Positive: 2, Neutral: 1, Negative: 1}, report.Distribution)
	assert.Equal(t, report.SampleCount, report.Distribution.Total())
}

func TestComputeTrendAverageRounding(t *testing.T) {
	base := window().Start
	obs := []model.SentimentObservation{
		obsAt(0.1, base),
		obsAt(0.2, base.Add(time.Hour)),
		obsAt(0.7, base.Add(2*time.Hour)),
	}
	report := ComputeTrend(window(), obs)
	assert.Equal(t, 0.333, report.AverageSentiment)
}

func TestComputeTrendDeterministic(t *testing.T) {
	base := window().Start
	obs := []model.SentimentObservation{
		obsAt(0.81, base.Add(time.Hour)),
		obsAt(0.17, base),
		obsAt(0.52, base.Add(2*time.Hour)),
		obsAt(0.44, base.Add(3*time.Hour)),
	}
	first := ComputeTrend(window(), obs)
	second := ComputeTrend(window(), obs)
	assert.Equal(t, first, second)
}

func TestComputeTrendDoesNotMutateInput(t *testing.T) {
	base := window().Start
	obs := []model.SentimentObservation{
		obsAt(0.9, base.Add(time.Hour)),
		obsAt(0.1, base),
	}
	ComputeTrend(window(), obs)
	assert.Equal(t, 0.9, obs[0].Score, "input order must be preserved")
}

// Twelve rated items with no evaluator: five fives, five ones, two
// threes, uniformly spread over a week.
func TestComputeTrendRatingFallbackScenario(t *testing.T) {
	base := window().Start
	ratings := []int{5, 5, 5, 5, 5, 1, 1, 1, 1, 1, 3, 3}

	obs := make([]model.SentimentObservation, len(ratings))
	for i, rating := range ratings {
		score, label := model.RatingSentiment(rating)
		obs[i] = model.SentimentObservation{
			FeedbackID: string(rune('a' + i)),
			Score:      score,
			Label:      label,
			Method:     model.MethodRating,
			AnalyzedAt: base.Add(time.Duration(i*14) * time.Hour),
		}
	}

	report := ComputeTrend(window(), obs)
	require.Equal(t, 12, report.SampleCount)
	assert.Equal(t, model.Distribution{Positive: 5, Neutral: 2, Negative: 5}, report.Distribution)
	assert.InDelta(t, 0.5, report.AverageSentiment, 0.001)
	assert.Equal(t, model.DirectionDeclining, report.Direction)
}
