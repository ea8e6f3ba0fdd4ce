package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractThemes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"no matches", "it was fine I guess", nil},
		{
			"single theme",
			"I was charged twice on my invoice",
			[]string{"billing"},
		},
		{
			"multiple themes in fixed order",
			"Support was slow and the app keeps crashing; also the price went up",
			[]string{"customer service", "response time", "pricing"},
		},
		{
			"whole word only",
			"the staff were very supportive",
			[]string{"customer service"},
		},
		{"case insensitive", "TERRIBLE SHIPPING DELAY", []string{"response time", "delivery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractThemes(tt.text))
		})
	}
}

func TestExtractThemesDeterministic(t *testing.T) {
	text := "billing error, slow support, broken interface"
	first := ExtractThemes(text)
	second := ExtractThemes(text)
	assert.Equal(t, first, second)
}
