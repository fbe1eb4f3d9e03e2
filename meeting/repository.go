package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dateflow/credit"
)

const meetingColumns = `
	id::text, host_id::text, scheduled_at, status, charge_status, outcome, fault,
	matched_at, decision_notice_sent, finalized_by::text, finalized_at,
	host_notes, created_at, updated_at`

// PGStore implements meeting persistence on PostgreSQL. It is the only
// writer of meetings and meeting_participants rows.
type PGStore struct {
	pool    *pgxpool.Pool
	credits *credit.Ledger
}

func NewPGStore(pool *pgxpool.Pool, credits *credit.Ledger) *PGStore {
	return &PGStore{pool: pool, credits: credits}
}

// GetMeeting loads one meeting by id.
func (s *PGStore) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	query := `SELECT` + meetingColumns + ` FROM meetings WHERE id = $1`

	m, err := scanMeeting(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Meeting{}, ErrNotFound
		}
		return Meeting{}, fmt.Errorf("meeting: get: %w", err)
	}
	return m, nil
}

// ListParticipants loads the meeting's participants with display names.
func (s *PGStore) ListParticipants(ctx context.Context, meetingID string) ([]Participant, error) {
	const query = `
		SELECT p.meeting_id::text, p.user_id::text, p.role, u.display_name
		FROM meeting_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.meeting_id = $1
		ORDER BY p.role
	`

	rows, err := s.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("meeting: list participants: %w", err)
	}
	defer rows.Close()

	out := make([]Participant, 0, 2)
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.MeetingID, &p.UserID, &p.Role, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("meeting: scan participant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("meeting: iterate participants: %w", err)
	}
	return out, nil
}

// FinalizeWrite enumerates the writes of one finalize transaction. When
// RefundUserID is set, the requester's used-credit decrement runs inside the
// same transaction as the write-once state transition, so a losing racer can
// never move credits.
type FinalizeWrite struct {
	MeetingID    string
	ActorID      string
	Outcome      Outcome
	Fault        Fault
	ChargeStatus ChargeStatus
	Notes        string
	RefundUserID string
}

// Finalize applies the write-once resolution transition. The update succeeds
// only while the meeting is still finalizable; a second finalize observes
// zero rows and is classified as ErrAlreadyFinalized (current state
// returned), ErrInvalidState, or ErrNotFound.
func (s *PGStore) Finalize(ctx context.Context, w FinalizeWrite) (Meeting, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Meeting{}, fmt.Errorf("meeting: begin finalize tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updateSQL := `
		UPDATE meetings
		SET status = 'completed',
		    charge_status = $2,
		    outcome = $3,
		    fault = $4,
		    finalized_by = $5,
		    finalized_at = now(),
		    host_notes = NULLIF($6, ''),
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('confirmed', 'completed')
		  AND finalized_at IS NULL
		RETURNING` + meetingColumns

	m, err := scanMeeting(tx.QueryRow(ctx, updateSQL, w.MeetingID, w.ChargeStatus, w.Outcome, w.Fault, w.ActorID, w.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.classifyLostFinalize(ctx, w.MeetingID)
		}
		return Meeting{}, fmt.Errorf("meeting: finalize update: %w", err)
	}

	if w.RefundUserID != "" {
		if err := s.credits.DecrementUsedTx(ctx, tx, w.RefundUserID, 1); err != nil {
			return Meeting{}, fmt.Errorf("meeting: refund credit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Meeting{}, fmt.Errorf("meeting: commit finalize: %w", err)
	}
	return m, nil
}

// classifyLostFinalize distinguishes why the conditional update matched no
// row. Runs outside the failed transaction on purpose: the state it reads is
// already committed by the winner.
func (s *PGStore) classifyLostFinalize(ctx context.Context, meetingID string) (Meeting, error) {
	current, err := s.GetMeeting(ctx, meetingID)
	if err != nil {
		return Meeting{}, err
	}
	if current.Finalized() {
		return current, ErrAlreadyFinalized
	}
	return Meeting{}, ErrInvalidState
}

// MarkDecisionNoticeSent flips the responses-complete notice guard. Returns
// true only for the caller that performed the flip; every later caller gets
// false and must not re-send the notice.
func (s *PGStore) MarkDecisionNoticeSent(ctx context.Context, meetingID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE meetings
		SET decision_notice_sent = true,
		    updated_at = now()
		WHERE id = $1 AND NOT decision_notice_sent
	`, meetingID)
	if err != nil {
		return false, fmt.Errorf("meeting: mark decision notice: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateWrite pairs two users into a new meeting. A nil ScheduledAt means
// "now".
type CreateWrite struct {
	HostID      string
	RequesterID string
	AccepterID  string
	ScheduledAt *time.Time
	Status      Status
}

// Create inserts the meeting with its two participant rows and consumes one
// requester credit, all in one transaction.
func (s *PGStore) Create(ctx context.Context, w CreateWrite) (Meeting, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Meeting{}, fmt.Errorf("meeting: begin create tx: %w", err)
	}
	defer tx.Rollback(ctx)

	status := w.Status
	if status == "" {
		status = StatusPending
	}

	insertSQL := `
		INSERT INTO meetings (host_id, scheduled_at, status)
		VALUES ($1, COALESCE($2::timestamptz, now()), $3)
		RETURNING` + meetingColumns

	m, err := scanMeeting(tx.QueryRow(ctx, insertSQL, w.HostID, w.ScheduledAt, status))
	if err != nil {
		return Meeting{}, fmt.Errorf("meeting: insert: %w", err)
	}

	const participantSQL = `
		INSERT INTO meeting_participants (meeting_id, user_id, role)
		VALUES ($1, $2, 'requester'), ($1, $3, 'accepter')
	`
	if _, err := tx.Exec(ctx, participantSQL, m.ID, w.RequesterID, w.AccepterID); err != nil {
		return Meeting{}, fmt.Errorf("meeting: insert participants: %w", err)
	}

	if err := s.credits.IncrementUsedTx(ctx, tx, w.RequesterID, 1); err != nil {
		return Meeting{}, fmt.Errorf("meeting: charge requester credit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Meeting{}, fmt.Errorf("meeting: commit create: %w", err)
	}
	return m, nil
}

// UpdateStatus moves the meeting through its pre-resolution lifecycle
// (pending → confirmed → completed/cancelled). Finalized meetings are
// immutable and never match.
func (s *PGStore) UpdateStatus(ctx context.Context, meetingID string, status Status) (Meeting, error) {
	updateSQL := `
		UPDATE meetings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1 AND finalized_at IS NULL
		RETURNING` + meetingColumns

	m, err := scanMeeting(s.pool.QueryRow(ctx, updateSQL, meetingID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.classifyLostFinalize(ctx, meetingID)
		}
		return Meeting{}, fmt.Errorf("meeting: update status: %w", err)
	}
	return m, nil
}

// ListForUser returns meetings the user participates in or hosts, newest
// first.
func (s *PGStore) ListForUser(ctx context.Context, userID string, limit int) ([]Meeting, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT` + meetingColumns + `
		FROM meetings
		WHERE host_id = $1
		   OR id IN (SELECT meeting_id FROM meeting_participants WHERE user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("meeting: list for user: %w", err)
	}
	defer rows.Close()

	out := make([]Meeting, 0, limit)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("meeting: scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("meeting: iterate: %w", err)
	}
	return out, nil
}

func scanMeeting(row pgx.Row) (Meeting, error) {
	var m Meeting
	err := row.Scan(
		&m.ID,
		&m.HostID,
		&m.ScheduledAt,
		&m.Status,
		&m.ChargeStatus,
		&m.Outcome,
		&m.Fault,
		&m.MatchedAt,
		&m.DecisionNoticeSent,
		&m.FinalizedBy,
		&m.FinalizedAt,
		&m.HostNotes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}
