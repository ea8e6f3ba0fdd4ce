package insights

import (
	"github.com/sells-group/insights-cli/internal/model"
)

// Recommendation strings, emitted in the fixed order below.
const (
	RecCritical  = "Critical: average sentiment is very low. Immediate action required to address customer concerns."
	RecOutreach  = "Consider proactive outreach to dissatisfied customers."
	RecModerate  = "Moderate concern: sentiment is trending negative. Review recent feedback for common issues."
	RecThemes    = "Analyze feedback themes to identify improvement opportunities."
	RecDeclining = "Sentiment is declining. Monitor closely and investigate recent changes."
	RecImproving = "Sentiment is improving. Continue current positive practices."
	RecLimited   = "Limited data available. Increase feedback collection to improve insight accuracy."
)

// Recommendations evaluates the rule set over a report's scalar fields.
// Rules are independent and more than one may fire; the output order is
// fixed: severity pair, then trend, then data volume. May be empty.
func Recommendations(avgSentiment float64, direction model.Direction, sampleCount int) []string {
	var recs []string

	if avgSentiment < 0.4 {
		recs = append(recs, RecCritical, RecOutreach)
	} else if avgSentiment < 0.6 {
		recs = append(recs, RecModerate, RecThemes)
	}

	if direction == model.DirectionDeclining {
		recs = append(recs, RecDeclining)
	} else if direction == model.DirectionImproving {
		recs = append(recs, RecImproving)
	}

	if sampleCount < 10 {
		recs = append(recs, RecLimited)
	}

	return recs
}
