// README: Ticket store backed by PostgreSQL; optimistic status updates and an
// append-only assignment history log.
package ticket

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aidlink/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, t *Ticket) error {
	var lat, lng *float64
	if t.Location != nil {
		lat, lng = &t.Location.Lat, &t.Location.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO tickets (
			id, reference, requester_id, description, lat, lng,
			categories, quantities, adults, children, elderly,
			sos, status, status_version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)`,
		string(t.ID),
		t.Reference,
		string(t.RequesterID),
		t.Description,
		lat, lng,
		t.Categories,
		quantitiesToJSON(t.Quantities),
		t.Headcount.Adults, t.Headcount.Children, t.Headcount.Elderly,
		t.SOS,
		string(t.Status),
		t.StatusVersion,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Ticket, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, reference, requester_id, description, lat, lng,
		       categories, quantities, adults, children, elderly,
		       sos, status, status_version, assigned_provider_id,
		       created_at, updated_at
		FROM tickets
		WHERE id = $1`, string(id),
	)
	return scanTicket(row)
}

// ListOpen returns tickets still eligible for reconciliation: status active
// and created after the cutoff.
func (s *PostgresStore) ListOpen(ctx context.Context, createdAfter time.Time) ([]Ticket, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, reference, requester_id, description, lat, lng,
		       categories, quantities, adults, children, elderly,
		       sos, status, status_version, assigned_provider_id,
		       created_at, updated_at
		FROM tickets
		WHERE status = $1 AND created_at >= $2
		ORDER BY sos DESC, created_at ASC`,
		string(StatusActive), createdAfter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateStatus performs the optimistic transition: the row must still be in
// the expected status and version for the write to land.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, providerID *types.ID) (bool, error) {
	var p *string
	if providerID != nil {
		v := string(*providerID)
		p = &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE tickets
		SET status = $1,
		    status_version = status_version + 1,
		    assigned_provider_id = COALESCE($2, assigned_provider_id),
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		p,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ticket_history (ticket_id, provider_id, note, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(e.TicketID),
		string(e.ProviderID),
		e.Note,
		e.CreatedAt,
	)
	return err
}

func (s *PostgresStore) History(ctx context.Context, id types.ID) ([]HistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, ticket_id, provider_id, note, created_at
		FROM ticket_history
		WHERE ticket_id = $1
		ORDER BY id ASC`, string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.TicketID, &e.ProviderID, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*Ticket, error) {
	var t Ticket
	var lat, lng sql.NullFloat64
	var quantities []byte
	var assignedProvider sql.NullString

	err := row.Scan(
		&t.ID, &t.Reference, &t.RequesterID, &t.Description, &lat, &lng,
		&t.Categories, &quantities,
		&t.Headcount.Adults, &t.Headcount.Children, &t.Headcount.Elderly,
		&t.SOS, &t.Status, &t.StatusVersion, &assignedProvider,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if lat.Valid && lng.Valid {
		t.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if assignedProvider.Valid {
		p := types.ID(assignedProvider.String)
		t.AssignedProviderID = &p
	}
	t.Quantities = quantitiesFromJSON(quantities)
	return &t, nil
}

func quantitiesToJSON(q map[string]int) []byte {
	if len(q) == 0 {
		return []byte("{}")
	}
	b, _ := json.Marshal(q)
	return b
}

func quantitiesFromJSON(b []byte) map[string]int {
	if len(b) == 0 {
		return nil
	}
	var q map[string]int
	if err := json.Unmarshal(b, &q); err != nil || len(q) == 0 {
		return nil
	}
	return q
}
