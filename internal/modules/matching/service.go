// README: Matching service: the single entry point combining the candidate
// finder and the scorer, plus the multi-provider combination search.
package matching

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"aidlink/internal/config"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/types"
)

// RouteEstimator refines ETAs with road-network travel times. Optional; when
// absent the haversine-based ETA stands.
type RouteEstimator interface {
	TravelEstimate(ctx context.Context, origin, dest types.Point) (time.Duration, error)
}

type Service struct {
	finder *Finder
	scorer *Scorer
	match  config.MatchingConfig
	combo  config.CombinationConfig
	routes RouteEstimator
	log    zerolog.Logger
}

func NewService(dir Directory, scoring config.ScoringConfig, match config.MatchingConfig, combo config.CombinationConfig, routes RouteEstimator, log zerolog.Logger) *Service {
	return &Service{
		finder: NewFinder(dir, match),
		scorer: NewScorer(scoring),
		match:  match,
		combo:  combo,
		routes: routes,
		log:    log.With().Str("component", "matching").Logger(),
	}
}

// MatchTicket returns the ranked candidate list for a ticket: descending
// score, ties broken by ascending distance with unknown distance last,
// truncated to the result cap. Excluded provider IDs never appear.
func (s *Service) MatchTicket(ctx context.Context, t *ticket.Ticket, opts Options) ([]Candidate, error) {
	cands, err := s.finder.findCandidates(ctx, t)
	if err != nil {
		return nil, err
	}

	excluded := make(map[types.ID]struct{}, len(opts.ExcludeProviderIDs))
	for _, id := range opts.ExcludeProviderIDs {
		excluded[id] = struct{}{}
	}

	scored := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if _, skip := excluded[c.provider.ID]; skip {
			continue
		}
		score, eta, matched := s.scorer.Score(&c.provider, t, c.distanceKm, opts.AvgSpeedKmph)
		scored = append(scored, Candidate{
			Provider:          c.provider,
			DistanceKm:        c.distanceKm,
			Score:             score,
			EtaMinutes:        eta,
			MatchedCategories: matched,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return lessByDistance(scored[i].DistanceKm, scored[j].DistanceKm)
	})

	max := opts.MaxResults
	if max <= 0 {
		max = s.match.MaxResults
	}
	if len(scored) > max {
		scored = scored[:max]
	}

	s.refineETAs(ctx, t, scored)
	return scored, nil
}

// FindCombinations returns assignment groups covering the ticket's
// normalized demand, best first. An empty result is a normal outcome: no
// subset of bounded size covers the demand yet.
func (s *Service) FindCombinations(ctx context.Context, t *ticket.Ticket, opts Options) ([]Group, error) {
	demand := NormalizeDemand(t, s.combo)
	if len(demand) == 0 {
		return nil, nil
	}

	opts.MaxResults = s.combo.CandidateCap
	candidates, err := s.MatchTicket(ctx, t, opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Single-provider shortcut: the best-ranked candidate whose capacity
	// covers every demanded category makes the group on its own.
	for _, c := range candidates {
		if coversAll(c, demand, s.combo) {
			return []Group{soloGroup(c, demand)}, nil
		}
	}

	// Pairs first; larger subsets only while too few viable groups exist.
	var groups []Group
	for size := 2; size <= s.combo.MaxGroupSize; size++ {
		groups = append(groups, coverGroups(candidates, demand, size, s.combo)...)
		if len(groups) >= s.combo.MinPairGroups {
			break
		}
	}
	sortGroups(groups)
	return groups, nil
}

// refineETAs swaps the haversine ETA for a road-network estimate on the top
// ranked candidates. Estimate failures keep the existing ETA.
func (s *Service) refineETAs(ctx context.Context, t *ticket.Ticket, scored []Candidate) {
	if s.routes == nil || t.Location == nil {
		return
	}
	top := s.match.EtaRefineTopK
	if top > len(scored) {
		top = len(scored)
	}
	for i := 0; i < top; i++ {
		d, err := s.routes.TravelEstimate(ctx, scored[i].Provider.Location, *t.Location)
		if err != nil {
			s.log.Debug().Err(err).Str("provider", string(scored[i].Provider.ID)).Msg("eta refinement failed")
			continue
		}
		eta := int(d.Round(time.Minute) / time.Minute)
		if eta < 1 {
			eta = 1
		}
		scored[i].EtaMinutes = &eta
	}
}

func lessByDistance(a, b *float64) bool {
	switch {
	case a == nil:
		return false // unknown distance sorts last
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
