package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound signals the ledger row for the user does not exist.
var ErrUserNotFound = errors.New("credit: user not found")

// Ledger tracks per-user consumed meeting credits. Mutations are designed to
// run inside the caller's transaction so credit movement commits or rolls
// back together with the meeting state change that caused it.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// DecrementUsedTx returns one consumed credit to the user, floored at zero.
// Invoked on refund settlements, inside the finalize transaction.
func (l *Ledger) DecrementUsedTx(ctx context.Context, tx pgx.Tx, userID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("credit: decrement amount must be positive")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET used_credits = GREATEST(used_credits - $2, 0),
		    updated_at = now()
		WHERE id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("credit: decrement used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IncrementUsedTx consumes credits, e.g. when a requester is paired into a
// new meeting.
func (l *Ledger) IncrementUsedTx(ctx context.Context, tx pgx.Tx, userID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("credit: increment amount must be positive")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET used_credits = used_credits + $2,
		    updated_at = now()
		WHERE id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("credit: increment used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UsedCredits reads a user's current consumed-credit counter.
func (l *Ledger) UsedCredits(ctx context.Context, userID string) (int, error) {
	var used int
	err := l.pool.QueryRow(ctx, `SELECT used_credits FROM users WHERE id = $1`, userID).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("credit: read used credits: %w", err)
	}
	return used, nil
}
