package ai

import (
	"context"
	"strings"

	"aidlink/internal/types"
)

// MockAnalyzer is a keyword-based analyzer for tests and offline runs.
type MockAnalyzer struct{}

func (MockAnalyzer) Analyze(ctx context.Context, message string) (*Analysis, error) {
	lower := strings.ToLower(message)
	out := &Analysis{Summary: "mock analysis"}

	keywords := map[string][]string{
		types.CategoryFood:      {"food", "hungry", "water", "meal"},
		types.CategoryMedical:   {"medical", "injur", "doctor", "bleed", "medicine"},
		types.CategoryTransport: {"transport", "evacuat", "stranded", "vehicle"},
		types.CategoryShelter:   {"shelter", "homeless", "roof", "tent"},
	}
	for _, cat := range types.KnownCategories {
		for _, kw := range keywords[cat] {
			if strings.Contains(lower, kw) {
				out.Categories = append(out.Categories, cat)
				break
			}
		}
	}
	for _, kw := range []string{"sos", "dying", "trapped", "urgent"} {
		if strings.Contains(lower, kw) {
			out.SOS = true
			break
		}
	}
	return out, nil
}
