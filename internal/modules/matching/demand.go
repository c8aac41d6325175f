// README: Demand normalization: one explicit function with documented
// defaults per category, invoked once at the entry of the combination search.
package matching

import (
	"sort"

	"aidlink/internal/config"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/types"
)

// NormalizeDemand resolves the per-category quantities a ticket actually
// needs covered. Explicit quantities win. Otherwise food, transport, and
// shelter default to the reported headcount (minimum 1), and medical
// defaults to one team-equivalent of people.
func NormalizeDemand(t *ticket.Ticket, cfg config.CombinationConfig) map[string]int {
	demand := make(map[string]int, len(t.Categories))
	head := t.Headcount.Total()
	for _, cat := range t.Categories {
		if q, ok := t.Quantities[cat]; ok {
			if q > 0 {
				demand[cat] = q
			}
			continue // explicit zero: trivially satisfied, no demand entry
		}
		switch cat {
		case types.CategoryMedical:
			demand[cat] = cfg.MedicalPerTeam
		default:
			if head > 0 {
				demand[cat] = head
			} else {
				demand[cat] = 1
			}
		}
	}
	return demand
}

// capacityFor converts a provider's declared counters into demand units
// (people covered) for one category, using the configured per-unit
// throughput assumptions.
func capacityFor(p *provider.Provider, category string, cfg config.CombinationConfig) int {
	if !p.ServesCategory(category) {
		return 0
	}
	switch category {
	case types.CategoryFood:
		return p.Capacity.FoodPerDay
	case types.CategoryMedical:
		return p.Capacity.MedicalTeams * cfg.MedicalPerTeam
	case types.CategoryTransport:
		return p.Capacity.Vehicles * cfg.SeatsPerVehicle
	case types.CategoryShelter:
		return p.Capacity.ShelterBeds
	default:
		return 0
	}
}

// demandOrder returns the categories of a demand map in a deterministic
// order: the known vocabulary first, then anything else alphabetically.
func demandOrder(demand map[string]int) []string {
	out := make([]string, 0, len(demand))
	for _, cat := range types.KnownCategories {
		if _, ok := demand[cat]; ok {
			out = append(out, cat)
		}
	}
	var extra []string
	for cat := range demand {
		if !types.IsKnownCategory(cat) {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
