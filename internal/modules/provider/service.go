// README: Provider service: validated registration and location updates.
// The matching engine only reads from this module.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"aidlink/internal/types"
)

var (
	ErrNotFound   = errors.New("provider not found")
	ErrBadRequest = errors.New("bad request")
)

// Store is the directory contract. Implemented by PostgresStore; the
// matching finder consumes the read side of it.
type Store interface {
	Upsert(ctx context.Context, p *Provider) error
	Get(ctx context.Context, id types.ID) (*Provider, error)
	Nearby(ctx context.Context, p types.Point, searchRadiusKm float64, limit int) ([]Near, error)
	ByCategories(ctx context.Context, categories []string, limit int) ([]Provider, error)
	UpdateLocation(ctx context.Context, id types.ID, p types.Point) error
}

type Service struct {
	store    Store
	validate *validator.Validate
}

func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

type RegisterCommand struct {
	Name            string   `validate:"required,max=200"`
	Lat             float64  `validate:"gte=-90,lte=90"`
	Lng             float64  `validate:"gte=-180,lte=180"`
	ServiceRadiusKm *float64 `validate:"omitempty,gt=0"`
	Availability    string   `validate:"required,oneof=full_time part_time on_call"`
	Categories      []string `validate:"min=1,dive,oneof=food medical transport shelter"`
	Capacity        Capacity
	RegistrationID  string
	ContactPhone    string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Provider, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if cmd.Capacity.FoodPerDay < 0 || cmd.Capacity.MedicalTeams < 0 ||
		cmd.Capacity.Vehicles < 0 || cmd.Capacity.ShelterBeds < 0 {
		return nil, fmt.Errorf("%w: negative capacity", ErrBadRequest)
	}

	now := time.Now().UTC()
	p := &Provider{
		ID:              types.ID(uuid.NewString()),
		Name:            cmd.Name,
		Location:        types.Point{Lat: cmd.Lat, Lng: cmd.Lng},
		ServiceRadiusKm: cmd.ServiceRadiusKm,
		Availability:    Availability(cmd.Availability),
		Categories:      cmd.Categories,
		Capacity:        cmd.Capacity,
		RegistrationID:  cmd.RegistrationID,
		ContactPhone:    cmd.ContactPhone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Provider, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	return s.store.UpdateLocation(ctx, id, p)
}
