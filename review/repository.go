package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("review: case not found")
	ErrBadStatus = errors.New("review: invalid status transition")
)

const caseColumns = `
	id::text, meeting_id::text, status, opened_by::text, resolved_by::text,
	created_at, updated_at, resolved_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Open creates the case for a meeting. At most one case per meeting exists;
// a replay hits the unique constraint and is a no-op.
func (r *Repository) Open(ctx context.Context, meetingID, openedBy string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_cases (meeting_id, status, opened_by)
		VALUES ($1, 'under_review', $2)
		ON CONFLICT (meeting_id) DO NOTHING
	`, meetingID, openedBy)
	if err != nil {
		return fmt.Errorf("review: open: %w", err)
	}
	return nil
}

// List returns cases, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status Status) ([]Case, error) {
	query := `SELECT` + caseColumns + ` FROM review_cases`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("review: list: %w", err)
	}
	defer rows.Close()

	out := make([]Case, 0, 8)
	for rows.Next() {
		var c Case
		if err := rows.Scan(&c.ID, &c.MeetingID, &c.Status, &c.OpenedBy, &c.ResolvedBy,
			&c.CreatedAt, &c.UpdatedAt, &c.ResolvedAt); err != nil {
			return nil, fmt.Errorf("review: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("review: iterate: %w", err)
	}
	return out, nil
}

// Resolve closes a case. The conditional update refuses a double-resolve;
// the follow-up read distinguishes an already-resolved case from a missing
// one.
func (r *Repository) Resolve(ctx context.Context, caseID, resolvedBy string) (Case, error) {
	updateSQL := `
		UPDATE review_cases
		SET status = 'resolved',
		    resolved_by = $2,
		    resolved_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status <> 'resolved'
		RETURNING` + caseColumns

	var c Case
	err := r.pool.QueryRow(ctx, updateSQL, caseID, resolvedBy).
		Scan(&c.ID, &c.MeetingID, &c.Status, &c.OpenedBy, &c.ResolvedBy,
			&c.CreatedAt, &c.UpdatedAt, &c.ResolvedAt)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Case{}, fmt.Errorf("review: resolve: %w", err)
	}

	var status Status
	if err := r.pool.QueryRow(ctx, `SELECT status FROM review_cases WHERE id = $1`, caseID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, fmt.Errorf("review: resolve fetch: %w", err)
	}
	if status == StatusResolved {
		return Case{}, ErrBadStatus
	}
	return Case{}, ErrNotFound
}
