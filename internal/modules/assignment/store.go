// README: Assignment ledger backed by PostgreSQL. The (ticket_id,
// provider_id) unique key plus ON CONFLICT DO NOTHING is the sole duplicate
// guard; it must stay a single conditional insert.
package assignment

import (
	"context"
	"encoding/json"

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

// UpsertProposal inserts the proposal if the (ticket, provider) pair has no
// record yet. An existing record is left untouched, whatever its status;
// the return value reports whether a row was created.
func (s *PostgresStore) UpsertProposal(ctx context.Context, a *Assignment) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO assignments (
			id, ticket_id, provider_id, status, matched_categories,
			score, distance_km, eta_minutes, allocated, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
		ON CONFLICT (ticket_id, provider_id) DO NOTHING`,
		string(a.ID), string(a.TicketID), string(a.ProviderID),
		string(a.Status), a.MatchedCategories,
		a.Score, a.DistanceKm, a.EtaMinutes,
		allocatedToJSON(a.Allocated), a.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Assignment, error) {
	rows, err := s.db.Query(ctx, selectAssignments+` WHERE id = $1`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := collectAssignments(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *PostgresStore) ListByTicket(ctx context.Context, ticketID types.ID) ([]Assignment, error) {
	rows, err := s.db.Query(ctx, selectAssignments+`
		WHERE ticket_id = $1
		ORDER BY score DESC, created_at ASC`, string(ticketID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// DecidedProviderIDs returns every provider that already has an assignment
// record for the ticket, in any status. The reconciliation loop excludes
// them from re-matching.
func (s *PostgresStore) DecidedProviderIDs(ctx context.Context, ticketID types.ID) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT provider_id FROM assignments WHERE ticket_id = $1`, string(ticketID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, types.ID(id))
	}
	return out, rows.Err()
}

// UpdateStatus performs the conditional transition; the row must still be in
// the expected status for the write to land.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE assignments
		SET status = $1, decided_at = NOW()
		WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const selectAssignments = `
	SELECT id, ticket_id, provider_id, status, matched_categories,
	       score, distance_km, eta_minutes, allocated, created_at, decided_at
	FROM assignments`

func collectAssignments(rows pgx.Rows) ([]Assignment, error) {
	var out []Assignment
	for rows.Next() {
		var a Assignment
		var allocated []byte
		err := rows.Scan(
			&a.ID, &a.TicketID, &a.ProviderID, &a.Status, &a.MatchedCategories,
			&a.Score, &a.DistanceKm, &a.EtaMinutes, &allocated,
			&a.CreatedAt, &a.DecidedAt,
		)
		if err != nil {
			return nil, err
		}
		a.Allocated = allocatedFromJSON(allocated)
		out = append(out, a)
	}
	return out, rows.Err()
}

func allocatedToJSON(m map[string]int) []byte {
	if len(m) == 0 {
		return []byte("{}")
	}
	b, _ := json.Marshal(m)
	return b
}

func allocatedFromJSON(b []byte) map[string]int {
	if len(b) == 0 {
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}
