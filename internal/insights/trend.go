package insights

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/sells-group/insights-cli/internal/model"
)

// directionBand is the minimum half-to-half mean shift that counts as a
// real trend movement.
const directionBand = 0.1

// ComputeTrend builds a TrendReport from the observations in a window.
// Pure and deterministic: the same observation set always yields the
// same report, and the input slice is never mutated.
func ComputeTrend(criteria model.ReportCriteria, observations []model.SentimentObservation) model.TrendReport {
	report := model.TrendReport{
		Criteria:         criteria,
		SampleCount:      len(observations),
		AverageSentiment: model.NeutralSentinel,
		Direction:        model.DirectionInsufficient,
	}
	report.Recommendations = Recommendations(report.AverageSentiment, report.Direction, report.SampleCount)
	if len(observations) == 0 {
		return report
	}

	ordered := make([]model.SentimentObservation, len(observations))
	copy(ordered, observations)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].AnalyzedAt.Equal(ordered[j].AnalyzedAt) {
			return ordered[i].AnalyzedAt.Before(ordered[j].AnalyzedAt)
		}
		return ordered[i].FeedbackID < ordered[j].FeedbackID
	})

	scores := make([]float64, len(ordered))
	for i, o := range ordered {
		scores[i] = o.Score
		switch model.LabelForScore(o.Score) {
		case model.LabelPositive:
			report.Distribution.Positive++
		case model.LabelNegative:
			report.Distribution.Negative++
		default:
			report.Distribution.Neutral++
		}
	}

	mean, _ := stats.Mean(scores)
	report.AverageSentiment, _ = stats.Round(mean, 3)
	report.Direction = direction(scores)
	report.Recommendations = Recommendations(report.AverageSentiment, report.Direction, report.SampleCount)
	return report
}

// direction compares the mean of the earliest floor(n/2) scores against
// the mean of the remainder. Scores must already be in chronological
// order.
func direction(scores []float64) model.Direction {
	if len(scores) < 2 {
		return model.DirectionInsufficient
	}

	half := len(scores) / 2
	firstMean, _ := stats.Mean(scores[:half])
	secondMean, _ := stats.Mean(scores[half:])

	switch {
	case secondMean > firstMean+directionBand:
		return model.DirectionImproving
	case secondMean < firstMean-directionBand:
		return model.DirectionDeclining
	default:
		return model.DirectionStable
	}
}
