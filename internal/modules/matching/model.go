// README: Matching candidates, assignment groups, and search options.
package matching

import (
	"aidlink/internal/modules/provider"
	"aidlink/internal/types"
)

// Candidate is one scored provider for a ticket.
type Candidate struct {
	Provider          provider.Provider `json:"provider"`
	DistanceKm        *float64          `json:"distance_km,omitempty"`
	Score             float64           `json:"score"`
	EtaMinutes        *int              `json:"eta_minutes,omitempty"`
	MatchedCategories []string          `json:"matched_categories"`
}

// Allocation is a candidate plus the per-category quantities it is asked to
// cover inside a group.
type Allocation struct {
	Candidate  Candidate      `json:"candidate"`
	Quantities map[string]int `json:"quantities"`
}

// Group is an ephemeral result of the combination search: an ordered set of
// allocations whose combined quantities meet the ticket's normalized demand.
// Groups are never persisted; they exist only during one matching invocation.
type Group struct {
	Members []Allocation `json:"members"`
	Score   float64      `json:"score"`
}

// ProviderIDs returns the member provider IDs in allocation order.
func (g Group) ProviderIDs() []types.ID {
	ids := make([]types.ID, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.Candidate.Provider.ID
	}
	return ids
}

// Options tunes a single match invocation. Zero values fall back to the
// service configuration.
type Options struct {
	AvgSpeedKmph       float64
	MaxResults         int
	ExcludeProviderIDs []types.ID
}
