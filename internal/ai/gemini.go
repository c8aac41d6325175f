package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"aidlink/internal/types"
)

// GeminiAnalyzer implements Analyzer using Google's Gemini models.
type GeminiAnalyzer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAnalyzer initializes a new Gemini client. apiKey should come from
// the environment, never from source.
func NewGeminiAnalyzer(ctx context.Context, apiKey string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps intake latency and cost low.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON so the response parses without prose stripping.
	model.ResponseMIMEType = "application/json"

	// Low temperature: extraction, not generation.
	model.SetTemperature(0.1)

	return &GeminiAnalyzer{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (a *GeminiAnalyzer) Close() {
	a.client.Close()
}

func (a *GeminiAnalyzer) Analyze(ctx context.Context, message string) (*Analysis, error) {
	prompt := buildIntakePrompt(message)

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw.WriteString(string(txt))
		}
	}

	var out Analysis
	if err := json.Unmarshal([]byte(raw.String()), &out); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	// Drop anything outside the category vocabulary rather than failing the
	// whole analysis.
	kept := out.Categories[:0]
	for _, c := range out.Categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if types.IsKnownCategory(c) {
			kept = append(kept, c)
		}
	}
	out.Categories = kept
	return &out, nil
}

func buildIntakePrompt(message string) string {
	return fmt.Sprintf(`You are the intake assistant of a disaster relief coordination system.
Read the aid request below and respond with a single JSON object:
{
  "categories": subset of ["food","medical","transport","shelter"] actually needed,
  "quantities": object mapping each category to the number of people it must cover (omit if unclear),
  "sos": true only if the message indicates immediate danger to life,
  "summary": one short sentence
}

Aid request: %s`, message)
}
