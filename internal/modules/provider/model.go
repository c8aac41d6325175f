// README: Provider aggregate: a relief organization with declared service
// area, availability class, and per-category capacity counters.
package provider

import (
	"time"

	"aidlink/internal/types"
)

type Availability string

const (
	AvailabilityFullTime Availability = "full_time"
	AvailabilityPartTime Availability = "part_time"
	AvailabilityOnCall   Availability = "on_call"
)

// Capacity is the declared per-category throughput of a provider.
// It is read-only from the matching engine's perspective; nothing in the
// current design decrements it when an assignment is accepted.
type Capacity struct {
	FoodPerDay   int `json:"food_per_day"`
	MedicalTeams int `json:"medical_teams"`
	Vehicles     int `json:"vehicles"`
	ShelterBeds  int `json:"shelter_beds"`
}

type Provider struct {
	ID              types.ID
	Name            string
	Location        types.Point
	ServiceRadiusKm *float64 // nil = no declared radius (default-include)
	Availability    Availability
	Categories      []string
	Capacity        Capacity
	RegistrationID  string // non-empty = verified organization
	ContactPhone    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Verified reports whether the provider carries a registration identifier.
func (p *Provider) Verified() bool {
	return p.RegistrationID != ""
}

// ServesCategory reports whether the provider declares the given category.
func (p *Provider) ServesCategory(c string) bool {
	for _, pc := range p.Categories {
		if pc == c {
			return true
		}
	}
	return false
}

// Near is a provider annotated with its distance from a query point.
type Near struct {
	Provider   Provider
	DistanceKm float64
}
