// README: Additive scoring heuristic. All weights are injected via
// config.ScoringConfig; nothing here reads globals.
package matching

import (
	"math"

	"aidlink/internal/config"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/types"
)

type Scorer struct {
	cfg config.ScoringConfig
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score rates one provider for one ticket. Per requested category the
// provider also serves: a flat match award plus a capacity bonus. On top:
// availability and verification bonuses, minus a linear distance penalty
// when the distance is known. Unknown distance is neither penalized nor
// rewarded. The final score is rounded to one decimal.
func (s *Scorer) Score(p *provider.Provider, t *ticket.Ticket, distanceKm *float64, avgSpeedKmph float64) (score float64, etaMinutes *int, matched []string) {
	for _, cat := range t.Categories {
		if !p.ServesCategory(cat) {
			continue
		}
		matched = append(matched, cat)
		score += s.cfg.CategoryMatchPoints
		score += s.capacityBonus(p, cat)
	}

	switch p.Availability {
	case provider.AvailabilityOnCall:
		score += s.cfg.OnCallBonus
	case provider.AvailabilityFullTime:
		score += s.cfg.FullTimeBonus
	}

	if p.Verified() {
		score += s.cfg.VerifiedBonus
	}

	if distanceKm != nil {
		score -= s.cfg.DistancePenaltyPerKm * *distanceKm
		if avgSpeedKmph <= 0 {
			avgSpeedKmph = s.cfg.AvgSpeedKmph
		}
		eta := int(math.Round(*distanceKm / avgSpeedKmph * 60))
		if eta < 1 {
			eta = 1
		}
		etaMinutes = &eta
	}

	score = math.Round(score*10) / 10
	return score, etaMinutes, matched
}

func (s *Scorer) capacityBonus(p *provider.Provider, category string) float64 {
	switch category {
	case types.CategoryFood:
		bonus := float64(p.Capacity.FoodPerDay / s.cfg.FoodBonusPerCapacity)
		return math.Min(s.cfg.FoodBonusCap, bonus)
	case types.CategoryMedical:
		return float64(p.Capacity.MedicalTeams) * s.cfg.MedicalTeamPoints
	case types.CategoryTransport:
		return float64(p.Capacity.Vehicles) * s.cfg.VehiclePoints
	default:
		return 0
	}
}
