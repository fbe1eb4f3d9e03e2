package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMessageNotFound signals the inbox row does not exist or is not visible
// to the requesting user.
var ErrMessageNotFound = errors.New("notify: message not found")

// InboxStore persists in-app notification rows.
type InboxStore interface {
	Insert(ctx context.Context, n Notice) (Message, error)
}

// PGInbox implements the inbox on PostgreSQL.
type PGInbox struct {
	pool *pgxpool.Pool
}

func NewPGInbox(pool *pgxpool.Pool) *PGInbox {
	return &PGInbox{pool: pool}
}

// Insert stores one notice as an inbox row. Ops-audience notices are stored
// with a NULL user id.
func (r *PGInbox) Insert(ctx context.Context, n Notice) (Message, error) {
	payload := n.Data
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("notify: marshal payload: %w", err)
	}

	var userID any
	audience := n.Audience
	if audience == "" {
		audience = AudienceUser
	}
	if audience == AudienceUser {
		userID = n.UserID
	}

	const insertSQL = `
		INSERT INTO notifications (user_id, audience, kind, title, message, payload)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING id::text, user_id::text, audience, kind, title, message, payload, created_at, read_at
	`

	var msg Message
	if err := r.pool.QueryRow(ctx, insertSQL, userID, audience, n.Kind, n.Title, n.Message, body).Scan(
		&msg.ID,
		&msg.UserID,
		&msg.Audience,
		&msg.Kind,
		&msg.Title,
		&msg.Message,
		&msg.Payload,
		&msg.CreatedAt,
		&msg.ReadAt,
	); err != nil {
		return Message{}, fmt.Errorf("notify: insert message: %w", err)
	}
	return msg, nil
}

// ListForUser returns the newest inbox rows for a user.
func (r *PGInbox) ListForUser(ctx context.Context, userID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	const query = `
		SELECT id::text, user_id::text, audience, kind, title, message, payload, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Audience, &msg.Kind, &msg.Title, &msg.Message, &msg.Payload, &msg.CreatedAt, &msg.ReadAt); err != nil {
			return nil, fmt.Errorf("notify: scan message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: iterate messages: %w", err)
	}
	return out, nil
}

// MarkRead stamps read_at on a user's own inbox row.
func (r *PGInbox) MarkRead(ctx context.Context, userID, messageID string) (Message, error) {
	const query = `
		UPDATE notifications
		SET read_at = COALESCE(read_at, now())
		WHERE id = $1 AND user_id = $2
		RETURNING id::text, user_id::text, audience, kind, title, message, payload, created_at, read_at
	`

	var msg Message
	err := r.pool.QueryRow(ctx, query, messageID, userID).Scan(
		&msg.ID, &msg.UserID, &msg.Audience, &msg.Kind, &msg.Title, &msg.Message, &msg.Payload, &msg.CreatedAt, &msg.ReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrMessageNotFound
		}
		return Message{}, fmt.Errorf("notify: mark read: %w", err)
	}
	return msg, nil
}
