package matching

import (
	"testing"

	"aidlink/internal/config"
	"aidlink/internal/modules/provider"
	"aidlink/internal/types"
)

func kmPtr(v float64) *float64 { return &v }

func TestScore_Components(t *testing.T) {
	scorer := NewScorer(config.DefaultScoring())

	tests := []struct {
		name        string
		provider    provider.Provider
		categories  []string
		distanceKm  *float64
		wantScore   float64
		wantMatched []string
	}{
		{
			name: "food match with capacity bonus",
			provider: provider.Provider{
				Categories:   []string{types.CategoryFood},
				Availability: provider.AvailabilityPartTime,
				Capacity:     provider.Capacity{FoodPerDay: 50},
			},
			categories:  []string{types.CategoryFood},
			wantScore:   15, // 10 match + 50/10 capacity
			wantMatched: []string{types.CategoryFood},
		},
		{
			name: "food capacity bonus is capped",
			provider: provider.Provider{
				Categories:   []string{types.CategoryFood},
				Availability: provider.AvailabilityPartTime,
				Capacity:     provider.Capacity{FoodPerDay: 900},
			},
			categories:  []string{types.CategoryFood},
			wantScore:   15, // bonus clamps at 5
			wantMatched: []string{types.CategoryFood},
		},
		{
			name: "medical teams, on call, verified",
			provider: provider.Provider{
				Categories:     []string{types.CategoryMedical},
				Availability:   provider.AvailabilityOnCall,
				Capacity:       provider.Capacity{MedicalTeams: 2},
				RegistrationID: "REG-1",
			},
			categories:  []string{types.CategoryMedical},
			wantScore:   22, // 10 + 2*3 + 4 on-call + 2 verified
			wantMatched: []string{types.CategoryMedical},
		},
		{
			name: "transport vehicles, full time",
			provider: provider.Provider{
				Categories:   []string{types.CategoryTransport},
				Availability: provider.AvailabilityFullTime,
				Capacity:     provider.Capacity{Vehicles: 3},
			},
			categories:  []string{types.CategoryTransport},
			wantScore:   18, // 10 + 3*2 + 2 full-time
			wantMatched: []string{types.CategoryTransport},
		},
		{
			name: "shelter has no capacity bonus",
			provider: provider.Provider{
				Categories:   []string{types.CategoryShelter},
				Availability: provider.AvailabilityPartTime,
				Capacity:     provider.Capacity{ShelterBeds: 400},
			},
			categories:  []string{types.CategoryShelter},
			wantScore:   10,
			wantMatched: []string{types.CategoryShelter},
		},
		{
			name: "no overlap scores zero",
			provider: provider.Provider{
				Categories:   []string{types.CategoryFood},
				Availability: provider.AvailabilityPartTime,
			},
			categories: []string{types.CategoryMedical},
			wantScore:  0,
		},
		{
			name: "distance penalty",
			provider: provider.Provider{
				Categories:   []string{types.CategoryFood},
				Availability: provider.AvailabilityPartTime,
			},
			categories: []string{types.CategoryFood},
			distanceKm: kmPtr(10),
			wantScore:  5, // 10 - 0.5*10
		},
		{
			name: "score rounds to one decimal",
			provider: provider.Provider{
				Categories:   []string{types.CategoryFood},
				Availability: provider.AvailabilityPartTime,
			},
			categories: []string{types.CategoryFood},
			distanceKm: kmPtr(0.33),
			wantScore:  9.8, // 10 - 0.165 = 9.835
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := testTicket(nil, tt.categories, nil)
			score, _, matched := scorer.Score(&tt.provider, tk, tt.distanceKm, 0)
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if len(matched) != len(tt.wantMatched) {
				t.Errorf("matched = %v, want %v", matched, tt.wantMatched)
			}
		})
	}
}

func TestScore_ETA(t *testing.T) {
	scorer := NewScorer(config.DefaultScoring())
	p := provider.Provider{Categories: []string{types.CategoryFood}, Availability: provider.AvailabilityPartTime}
	tk := testTicket(&testOrigin, []string{types.CategoryFood}, nil)

	_, eta, _ := scorer.Score(&p, tk, kmPtr(10), 0)
	if eta == nil || *eta != 15 {
		t.Errorf("eta at default speed = %v, want 15", eta)
	}

	_, eta, _ = scorer.Score(&p, tk, kmPtr(10), 20)
	if eta == nil || *eta != 30 {
		t.Errorf("eta at 20 km/h = %v, want 30", eta)
	}

	_, eta, _ = scorer.Score(&p, tk, kmPtr(0.1), 0)
	if eta == nil || *eta != 1 {
		t.Errorf("eta floor = %v, want 1", eta)
	}

	_, eta, _ = scorer.Score(&p, tk, nil, 0)
	if eta != nil {
		t.Errorf("unknown distance must yield no ETA, got %v", *eta)
	}
}

func TestScore_DistancePenaltyMonotonic(t *testing.T) {
	scorer := NewScorer(config.DefaultScoring())
	p := provider.Provider{Categories: []string{types.CategoryFood}, Availability: provider.AvailabilityPartTime}
	tk := testTicket(&testOrigin, []string{types.CategoryFood}, nil)

	prev, _, _ := scorer.Score(&p, tk, kmPtr(0), 0)
	for km := 1.0; km <= 20; km++ {
		score, _, _ := scorer.Score(&p, tk, kmPtr(km), 0)
		if score > prev {
			t.Fatalf("score increased with distance: %v at %vkm after %v", score, km, prev)
		}
		prev = score
	}
}
