// README: Capacity-aware combination search: single-provider shortcut, then
// a bounded-depth subset search over the ranked candidate list.
package matching

import (
	"sort"

	"aidlink/internal/config"
)

// coversAll reports whether one candidate's converted capacity satisfies
// every demanded category on its own.
func coversAll(c Candidate, demand map[string]int, cfg config.CombinationConfig) bool {
	for cat, need := range demand {
		if capacityFor(&c.Provider, cat, cfg) < need {
			return false
		}
	}
	return true
}

// soloGroup allocates the full demand to a single covering candidate.
func soloGroup(c Candidate, demand map[string]int) Group {
	alloc := make(map[string]int, len(demand))
	for cat, need := range demand {
		alloc[cat] = need
	}
	return Group{
		Members: []Allocation{{Candidate: c, Quantities: alloc}},
		Score:   c.Score,
	}
}

// coverGroups enumerates every subset of exactly `size` candidates (in rank
// order) and keeps those whose greedy allocation drives remaining demand to
// exactly zero in every category. It is an explicit bounded-depth search so
// the "no group found" edge is directly testable.
func coverGroups(candidates []Candidate, demand map[string]int, size int, cfg config.CombinationConfig) []Group {
	if size < 1 || len(candidates) < size {
		return nil
	}
	var groups []Group
	subset := make([]int, 0, size)

	var walk func(start int)
	walk = func(start int) {
		if len(subset) == size {
			if g, ok := tryAllocate(candidates, subset, demand, cfg); ok {
				groups = append(groups, g)
			}
			return
		}
		// Not enough candidates left to complete the subset.
		for i := start; i <= len(candidates)-(size-len(subset)); i++ {
			subset = append(subset, i)
			walk(i + 1)
			subset = subset[:len(subset)-1]
		}
	}
	walk(0)
	return groups
}

// tryAllocate greedily allocates each subset member's capacity against the
// remaining demand in candidate order. The subset is accepted only if every
// category reaches exactly zero remaining demand and every member
// contributes to at least one category.
func tryAllocate(candidates []Candidate, subset []int, demand map[string]int, cfg config.CombinationConfig) (Group, bool) {
	remaining := make(map[string]int, len(demand))
	for cat, need := range demand {
		remaining[cat] = need
	}
	order := demandOrder(demand)

	members := make([]Allocation, 0, len(subset))
	var total float64
	for _, idx := range subset {
		c := candidates[idx]
		alloc := make(map[string]int)
		contributed := false
		for _, cat := range order {
			need := remaining[cat]
			if need == 0 {
				continue
			}
			take := capacityFor(&c.Provider, cat, cfg)
			if take > need {
				take = need
			}
			if take == 0 {
				continue
			}
			alloc[cat] = take
			remaining[cat] = need - take
			contributed = true
		}
		if !contributed {
			return Group{}, false
		}
		members = append(members, Allocation{Candidate: c, Quantities: alloc})
		total += c.Score
	}

	for _, left := range remaining {
		if left != 0 {
			return Group{}, false
		}
	}

	penalty := 1 - cfg.GroupSizePenalty*float64(len(members)-1)
	return Group{Members: members, Score: total * penalty}, true
}

// sortGroups orders groups by adjusted score, best first. Stable so that
// equal-scoring groups keep candidate-rank order.
func sortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Score > groups[j].Score
	})
}
