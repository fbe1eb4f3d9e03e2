package response

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists responses on PostgreSQL. The (meeting_id, user_id)
// primary key plus the ON CONFLICT upsert give the one-row-per-pair
// invariant without any read-modify-write.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Upsert writes the response, overwriting any previous answer by the same
// user for the same meeting. signed_at always moves to now.
func (s *PGStore) Upsert(ctx context.Context, r Response) (Response, error) {
	const query = `
		INSERT INTO responses (meeting_id, user_id, decision, statement, signed_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (meeting_id, user_id)
		DO UPDATE SET decision = EXCLUDED.decision,
		              statement = EXCLUDED.statement,
		              signed_at = now()
		RETURNING meeting_id::text, user_id::text, decision, statement, signed_at
	`

	var out Response
	err := s.pool.QueryRow(ctx, query, r.MeetingID, r.UserID, r.Decision, r.Statement).
		Scan(&out.MeetingID, &out.UserID, &out.Decision, &out.Statement, &out.SignedAt)
	if err != nil {
		return Response{}, fmt.Errorf("response: upsert: %w", err)
	}
	return out, nil
}

// ListByMeeting returns the meeting's responses (0, 1 or 2 rows).
func (s *PGStore) ListByMeeting(ctx context.Context, meetingID string) ([]Response, error) {
	const query = `
		SELECT meeting_id::text, user_id::text, decision, statement, signed_at
		FROM responses
		WHERE meeting_id = $1
		ORDER BY signed_at
	`

	rows, err := s.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("response: list: %w", err)
	}
	defer rows.Close()

	out := make([]Response, 0, 2)
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.MeetingID, &r.UserID, &r.Decision, &r.Statement, &r.SignedAt); err != nil {
			return nil, fmt.Errorf("response: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("response: iterate: %w", err)
	}
	return out, nil
}
