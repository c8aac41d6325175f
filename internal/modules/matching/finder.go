// README: Geospatial candidate finder with a capability-only fallback for
// tickets without geometry.
package matching

import (
	"context"

	"aidlink/internal/config"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/types"
)

// Directory is the read side of the provider store the finder queries.
type Directory interface {
	Nearby(ctx context.Context, p types.Point, searchRadiusKm float64, limit int) ([]provider.Near, error)
	ByCategories(ctx context.Context, categories []string, limit int) ([]provider.Provider, error)
}

// found is a pre-scoring candidate: a provider with an optional distance.
type found struct {
	provider   provider.Provider
	distanceKm *float64
}

type Finder struct {
	dir Directory
	cfg config.MatchingConfig
}

func NewFinder(dir Directory, cfg config.MatchingConfig) *Finder {
	return &Finder{dir: dir, cfg: cfg}
}

// findCandidates returns providers eligible for the ticket. With a location,
// candidates are those within their own declared service radius of the point
// (providers with no declared radius are included by default). Without a
// location, the capability-only fallback returns providers whose categories
// intersect the request. The result is capped; ordering before scoring is
// not guaranteed.
func (f *Finder) findCandidates(ctx context.Context, t *ticket.Ticket) ([]found, error) {
	if t.Location == nil {
		ps, err := f.dir.ByCategories(ctx, t.Categories, f.cfg.MaxCandidates)
		if err != nil {
			return nil, err
		}
		out := make([]found, 0, len(ps))
		for _, p := range ps {
			out = append(out, found{provider: p})
		}
		return out, nil
	}

	near, err := f.dir.Nearby(ctx, *t.Location, f.cfg.SearchRadiusKm, f.cfg.MaxCandidates)
	if err != nil {
		return nil, err
	}
	out := make([]found, 0, len(near))
	for _, n := range near {
		if n.Provider.ServiceRadiusKm != nil && n.DistanceKm > *n.Provider.ServiceRadiusKm {
			continue
		}
		d := n.DistanceKm
		out = append(out, found{provider: n.Provider, distanceKm: &d})
		if len(out) >= f.cfg.MaxCandidates {
			break
		}
	}
	return out, nil
}
