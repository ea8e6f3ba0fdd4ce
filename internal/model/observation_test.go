package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{0.0, LabelNegative},
		{0.4, LabelNegative},
		{0.41, LabelNeutral},
		{0.5, LabelNeutral},
		{0.59, LabelNeutral},
		{0.6, LabelPositive},
		{1.0, LabelPositive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelForScore(tt.score), "score %.2f", tt.score)
	}
}

func TestRatingSentiment(t *testing.T) {
	tests := []struct {
		rating    int
		wantScore float64
		wantLabel Label
	}{
		{1, 0.2, LabelNegative},
		{2, 0.2, LabelNegative},
		{3, 0.5, LabelNeutral},
		{4, 0.8, LabelPositive},
		{5, 0.8, LabelPositive},
	}
	for _, tt := range tests {
		score, label := RatingSentiment(tt.rating)
		assert.Equal(t, tt.wantScore, score, "rating %d", tt.rating)
		assert.Equal(t, tt.wantLabel, label, "rating %d", tt.rating)
	}
}

func TestFeedbackItem_HasRating(t *testing.T) {
	three := 3
	zero := 0
	six := 6

	assert.False(t, (&FeedbackItem{}).HasRating())
	assert.False(t, (&FeedbackItem{Rating: &zero}).HasRating())
	assert.False(t, (&FeedbackItem{Rating: &six}).HasRating())
	assert.True(t, (&FeedbackItem{Rating: &three}).HasRating())
}

func TestDistribution_Total(t *testing.T) {
	d := Distribution{Positive: 5, Neutral: 2, Negative: 5}
	assert.Equal(t, 12, d.Total())
	assert.Equal(t, 0, Distribution{}.Total())
}
