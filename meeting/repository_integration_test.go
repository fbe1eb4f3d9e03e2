package meeting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dateflow/credit"
)

// TestFinalizeLifecycle_Integration connects to a real PostgreSQL via
// DATABASE_URL and exercises create → finalize → replay against the live
// schema, including the in-transaction refund credit movement.
func TestFinalizeLifecycle_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "meetings") || !tableExists(ctx, t, pool, "meeting_participants") {
		t.Skip("database schema missing; apply migrations/001_init.sql first")
	}

	seedUser := func(role string, usedCredits int) string {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO users (email, display_name, password_hash, role, used_credits)
			VALUES ($1, $2, 'x', $3, $4) RETURNING id::text
		`, fmt.Sprintf("%s+%d@example.com", role, time.Now().UnixNano()), role, role, usedCredits).Scan(&id)
		if err != nil {
			t.Fatalf("seed %s: %v", role, err)
		}
		return id
	}

	hostID := seedUser("host", 0)
	requesterID := seedUser("user", 3)
	accepterID := seedUser("user", 0)

	store := NewPGStore(pool, credit.NewLedger(pool))

	created, err := store.Create(ctx, CreateWrite{
		HostID:      hostID,
		RequesterID: requesterID,
		AccepterID:  accepterID,
		Status:      StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM meeting_participants WHERE meeting_id = $1`, created.ID)
		pool.Exec(ctx2, `DELETE FROM meetings WHERE id = $1`, created.ID)
		pool.Exec(ctx2, `DELETE FROM users WHERE id IN ($1, $2, $3)`, hostID, requesterID, accepterID)
	})

	// Creating the meeting charges one requester credit.
	var used int
	if err := pool.QueryRow(ctx, `SELECT used_credits FROM users WHERE id = $1`, requesterID).Scan(&used); err != nil {
		t.Fatalf("read requester credits: %v", err)
	}
	if used != 4 {
		t.Fatalf("expected used_credits 4 after pairing, got %d", used)
	}

	parts, err := store.ListParticipants(ctx, created.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(parts))
	}

	write := FinalizeWrite{
		MeetingID:    created.ID,
		ActorID:      hostID,
		Outcome:      OutcomeNoShow,
		Fault:        FaultAccepter,
		ChargeStatus: ChargeRefunded,
		Notes:        "accepter never joined",
		RefundUserID: requesterID,
	}

	finalized, err := store.Finalize(ctx, write)
	if err != nil {
		t.Fatalf("finalize (first): %v", err)
	}
	if finalized.ChargeStatus != ChargeRefunded || !finalized.Finalized() {
		t.Fatalf("unexpected finalized state: %+v", finalized)
	}
	if finalized.HostNotes == nil || *finalized.HostNotes != "accepter never joined" {
		t.Fatalf("host notes not persisted: %v", finalized.HostNotes)
	}

	// Refund credit decrement committed in the same transaction.
	if err := pool.QueryRow(ctx, `SELECT used_credits FROM users WHERE id = $1`, requesterID).Scan(&used); err != nil {
		t.Fatalf("re-read requester credits: %v", err)
	}
	if used != 3 {
		t.Fatalf("expected used_credits 3 after refund, got %d", used)
	}

	// Replay loses the conditional update, reports the settled state, and
	// must not move credits again.
	replayed, err := store.Finalize(ctx, write)
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("finalize (replay): expected ErrAlreadyFinalized, got %v", err)
	}
	if replayed.ChargeStatus != ChargeRefunded {
		t.Fatalf("replay returned wrong state: %+v", replayed)
	}
	if err := pool.QueryRow(ctx, `SELECT used_credits FROM users WHERE id = $1`, requesterID).Scan(&used); err != nil {
		t.Fatalf("final credit read: %v", err)
	}
	if used != 3 {
		t.Fatalf("replay moved credits: used_credits = %d", used)
	}

	// Finalized meetings are immutable for lifecycle transitions too.
	if _, err := store.UpdateStatus(ctx, created.ID, StatusCancelled); !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized from UpdateStatus, got %v", err)
	}

	// The responses-complete notice guard flips exactly once.
	first, err := store.MarkDecisionNoticeSent(ctx, created.ID)
	if err != nil {
		t.Fatalf("mark notice (first): %v", err)
	}
	second, err := store.MarkDecisionNoticeSent(ctx, created.ID)
	if err != nil {
		t.Fatalf("mark notice (second): %v", err)
	}
	if !first || second {
		t.Fatalf("notice guard: first=%v second=%v, want true/false", first, second)
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`, name).Scan(&exists)
	if err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
