// README: Provider directory store: Postgres rows plus a Redis GEO index for
// "within service area" queries.
package provider

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"aidlink/internal/types"
)

const providerGeoKey = "providers:geo"

type PostgresStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPostgresStore(db *pgxpool.Pool, redis *redis.Client) *PostgresStore {
	return &PostgresStore{db: db, redis: redis}
}

// Upsert writes the provider row and refreshes its GEO index entry.
func (s *PostgresStore) Upsert(ctx context.Context, p *Provider) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO providers (
			id, name, lat, lng, service_radius_km, availability,
			categories, food_per_day, medical_teams, vehicles, shelter_beds,
			registration_id, contact_phone, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			service_radius_km = EXCLUDED.service_radius_km,
			availability = EXCLUDED.availability,
			categories = EXCLUDED.categories,
			food_per_day = EXCLUDED.food_per_day,
			medical_teams = EXCLUDED.medical_teams,
			vehicles = EXCLUDED.vehicles,
			shelter_beds = EXCLUDED.shelter_beds,
			registration_id = EXCLUDED.registration_id,
			contact_phone = EXCLUDED.contact_phone,
			updated_at = EXCLUDED.updated_at`,
		string(p.ID), p.Name, p.Location.Lat, p.Location.Lng,
		p.ServiceRadiusKm, string(p.Availability),
		p.Categories, p.Capacity.FoodPerDay, p.Capacity.MedicalTeams,
		p.Capacity.Vehicles, p.Capacity.ShelterBeds,
		p.RegistrationID, p.ContactPhone, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return s.redis.GeoAdd(ctx, providerGeoKey, &redis.GeoLocation{
		Name:      string(p.ID),
		Longitude: p.Location.Lng,
		Latitude:  p.Location.Lat,
	}).Err()
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Provider, error) {
	rows, err := s.db.Query(ctx, selectProviders+` WHERE id = $1`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := collectProviders(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// Nearby returns every indexed provider within searchRadiusKm of the point,
// nearest first, with distances attached. Per-provider service radius
// filtering is the caller's concern.
func (s *PostgresStore) Nearby(ctx context.Context, p types.Point, searchRadiusKm float64, limit int) ([]Near, error) {
	locs, err := s.redis.GeoSearchLocation(ctx, providerGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     searchRadiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(locs))
	dist := make(map[string]float64, len(locs))
	for i, l := range locs {
		ids[i] = l.Name
		dist[l.Name] = l.Dist
	}

	rows, err := s.db.Query(ctx, selectProviders+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	providers, err := collectProviders(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[types.ID]Provider, len(providers))
	for _, pr := range providers {
		byID[pr.ID] = pr
	}
	// Preserve the GEO index's nearest-first order.
	out := make([]Near, 0, len(locs))
	for _, l := range locs {
		pr, ok := byID[types.ID(l.Name)]
		if !ok {
			continue // index entry with no backing row, skip
		}
		out = append(out, Near{Provider: pr, DistanceKm: dist[l.Name]})
	}
	return out, nil
}

// ByCategories is the capability-only fallback for tickets without geometry:
// providers whose declared categories intersect the requested set.
func (s *PostgresStore) ByCategories(ctx context.Context, categories []string, limit int) ([]Provider, error) {
	rows, err := s.db.Query(ctx, selectProviders+`
		WHERE categories && $1
		ORDER BY created_at ASC
		LIMIT $2`, categories, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProviders(rows)
}

func (s *PostgresStore) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE providers SET lat = $1, lng = $2, updated_at = NOW() WHERE id = $3`,
		p.Lat, p.Lng, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return s.redis.GeoAdd(ctx, providerGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

const selectProviders = `
	SELECT id, name, lat, lng, service_radius_km, availability,
	       categories, food_per_day, medical_teams, vehicles, shelter_beds,
	       registration_id, contact_phone, created_at, updated_at
	FROM providers`

func collectProviders(rows pgx.Rows) ([]Provider, error) {
	var out []Provider
	for rows.Next() {
		var p Provider
		var radius *float64
		err := rows.Scan(
			&p.ID, &p.Name, &p.Location.Lat, &p.Location.Lng, &radius, &p.Availability,
			&p.Categories, &p.Capacity.FoodPerDay, &p.Capacity.MedicalTeams,
			&p.Capacity.Vehicles, &p.Capacity.ShelterBeds,
			&p.RegistrationID, &p.ContactPhone, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		p.ServiceRadiusKm = radius
		out = append(out, p)
	}
	return out, rows.Err()
}
