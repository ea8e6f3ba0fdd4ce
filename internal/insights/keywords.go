package insights

import (
	"strings"
)

// themeKeywords maps trigger words to the theme they indicate. Scanned in
// the fixed order below so extraction is deterministic.
var themeKeywords = []struct {
	theme string
	words []string
}{
	{"customer service", []string{"support", "service", "agent", "representative", "staff"}},
	{"response time", []string{"slow", "wait", "waiting", "delay", "delayed", "hours"}},
	{"billing", []string{"billing", "charge", "charged", "invoice", "refund"}},
	{"pricing", []string{"price", "pricing", "cost", "expensive", "cheap"}},
	{"product quality", []string{"bug", "crash", "broken", "error", "defect", "quality"}},
	{"delivery", []string{"shipping", "delivery", "shipped", "package", "arrived"}},
	{"usability", []string{"confusing", "intuitive", "easy", "difficult", "interface"}},
}

// ExtractThemes pulls recognizable themes out of raw feedback text. Used
// on the evaluator failure path, where no model-derived themes exist.
func ExtractThemes(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var themes []string
	for _, entry := range themeKeywords {
		for _, word := range entry.words {
			if containsWord(lower, word) {
				themes = append(themes, entry.theme)
				break
			}
		}
	}
	return themes
}

// containsWord matches whole words only, so "support" does not fire
// inside "supportive".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		startOK := start == 0 || !isWordChar(text[start-1])
		endOK := end == len(text) || !isWordChar(text[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
