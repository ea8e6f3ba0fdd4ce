package mockgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

func TestGenerateValidSubmissions(t *testing.T) {
	g, err := New(WithSeed(1))
	require.NoError(t, err)

	for _, sub := range g.GenerateN(200) {
		assert.NotEmpty(t, sub.CustomerID)
		assert.NotEmpty(t, sub.Text)
		assert.NotEmpty(t, sub.Channel)
		require.NotNil(t, sub.Rating)
		assert.GreaterOrEqual(t, *sub.Rating, 1)
		assert.LessOrEqual(t, *sub.Rating, 5)
		assert.Equal(t, model.OriginSynthetic, sub.Origin)
		assert.Contains(t, sub.Metadata, "category")
		assert.Contains(t, sub.Metadata, "priority")
	}
}

func TestGenerateRatingMatchesTier(t *testing.T) {
	g, err := New(WithSeed(7))
	require.NoError(t, err)

	// Tier membership is observable through the coupled metadata.
	for _, sub := range g.GenerateN(500) {
		switch {
		case sub.Metadata["churn_risk"] != nil:
			assert.LessOrEqual(t, *sub.Rating, 2, "negative tier carries ratings 1-2")
		case sub.Metadata["satisfaction_score"] != nil:
			assert.GreaterOrEqual(t, *sub.Rating, 4, "positive tier carries ratings 4-5")
		default:
			assert.Equal(t, 3, *sub.Rating)
		}
	}
}

func TestGenerateWeightedMix(t *testing.T) {
	g, err := New(WithSeed(42))
	require.NoError(t, err)

	counts := map[string]int{}
	for _, sub := range g.GenerateN(2000) {
		switch {
		case *sub.Rating >= 4:
			counts["positive"]++
		case *sub.Rating == 3:
			counts["neutral"]++
		default:
			counts["negative"]++
		}
	}

	// Weights are 0.5/0.3/0.2; allow generous slack.
	assert.InDelta(t, 1000, counts["positive"], 150)
	assert.InDelta(t, 600, counts["neutral"], 150)
	assert.InDelta(t, 400, counts["negative"], 150)
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	g1, err := New(WithSeed(99))
	require.NoError(t, err)
	g2, err := New(WithSeed(99))
	require.NoError(t, err)

	assert.Equal(t, g1.GenerateN(20), g2.GenerateN(20))
}

func TestCustomerPool(t *testing.T) {
	g, err := New(WithSeed(3), WithCustomerPool(5))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, sub := range g.GenerateN(100) {
		seen[sub.CustomerID] = true
	}
	assert.LessOrEqual(t, len(seen), 5)
}
