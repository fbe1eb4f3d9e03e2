package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchColumns = `
	id::text, meeting_id::text, requester_id::text, accepter_id::text,
	messaging_enabled, matched_at`

// PGStore persists matches on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Create inserts the match and stamps meetings.matched_at in one
// transaction. The UNIQUE(meeting_id) constraint makes concurrent creation
// safe: the loser gets ErrExists and must treat the existing row as the
// result.
func (s *PGStore) Create(ctx context.Context, meetingID, requesterID, accepterID string) (Match, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Match{}, fmt.Errorf("match: begin create tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insertSQL := `
		INSERT INTO matches (meeting_id, requester_id, accepter_id, messaging_enabled)
		VALUES ($1, $2, $3, true)
		RETURNING` + matchColumns

	var m Match
	err = tx.QueryRow(ctx, insertSQL, meetingID, requesterID, accepterID).
		Scan(&m.ID, &m.MeetingID, &m.RequesterID, &m.AccepterID, &m.MessagingEnabled, &m.MatchedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Match{}, ErrExists
		}
		return Match{}, fmt.Errorf("match: insert: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE meetings SET matched_at = now(), updated_at = now()
		WHERE id = $1 AND matched_at IS NULL
	`, meetingID); err != nil {
		return Match{}, fmt.Errorf("match: stamp meeting: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Match{}, fmt.Errorf("match: commit create: %w", err)
	}
	return m, nil
}

// GetByMeeting loads the match for a meeting, if one exists.
func (s *PGStore) GetByMeeting(ctx context.Context, meetingID string) (Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE meeting_id = $1`

	var m Match
	err := s.pool.QueryRow(ctx, query, meetingID).
		Scan(&m.ID, &m.MeetingID, &m.RequesterID, &m.AccepterID, &m.MessagingEnabled, &m.MatchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Match{}, ErrNotFound
		}
		return Match{}, fmt.Errorf("match: get by meeting: %w", err)
	}
	return m, nil
}

// ListForUser returns the user's matches, newest first.
func (s *PGStore) ListForUser(ctx context.Context, userID string, limit int) ([]Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT` + matchColumns + `
		FROM matches
		WHERE requester_id = $1 OR accepter_id = $1
		ORDER BY matched_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("match: list for user: %w", err)
	}
	defer rows.Close()

	out := make([]Match, 0, limit)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.MeetingID, &m.RequesterID, &m.AccepterID, &m.MessagingEnabled, &m.MatchedAt); err != nil {
			return nil, fmt.Errorf("match: scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match: iterate: %w", err)
	}
	return out, nil
}
