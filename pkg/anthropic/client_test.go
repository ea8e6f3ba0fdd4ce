package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: `{"sentiment_score": 0.8`},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: `}`},
		},
	}
	assert.Equal(t, `{"sentiment_score": 0.8}`, resp.Text())

	empty := &MessageResponse{}
	assert.Empty(t, empty.Text())
}

func TestTokenUsage_EstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	cost := u.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 0.80+2.00, cost, 0.001)

	assert.Zero(t, u.EstimateCost("unknown-model"))
}

func TestToSDKMessages_Roles(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "analyze this"},
		{Role: "assistant", Content: "ok"},
	})
	assert.Len(t, msgs, 2)
}
