package ai

import "context"

// Analysis is the structured reading of a free-text aid request.
type Analysis struct {
	Categories []string       `json:"categories"`
	Quantities map[string]int `json:"quantities"`
	SOS        bool           `json:"sos"`
	Summary    string         `json:"summary"`
}

// Analyzer extracts structured demand from a free-text aid request.
// This interface allows swapping providers (Gemini, a local model, a mock)
// without touching the intake flow.
type Analyzer interface {
	Analyze(ctx context.Context, message string) (*Analysis, error)
}
