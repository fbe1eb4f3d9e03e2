package meeting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dateflow/auth"
	"dateflow/notify"
)

type fakeStore struct {
	meeting       Meeting
	missing       bool
	parts         []Participant
	finalizeCalls int
	lastWrite     FinalizeWrite
	finalizeErr   error
}

func (f *fakeStore) GetMeeting(_ context.Context, id string) (Meeting, error) {
	if f.missing || id != f.meeting.ID {
		return Meeting{}, ErrNotFound
	}
	return f.meeting, nil
}

func (f *fakeStore) ListParticipants(_ context.Context, _ string) ([]Participant, error) {
	return f.parts, nil
}

func (f *fakeStore) Finalize(_ context.Context, w FinalizeWrite) (Meeting, error) {
	if f.finalizeErr != nil {
		return Meeting{}, f.finalizeErr
	}
	if f.meeting.Finalized() {
		return f.meeting, ErrAlreadyFinalized
	}
	if f.meeting.Status != StatusConfirmed && f.meeting.Status != StatusCompleted {
		return Meeting{}, ErrInvalidState
	}

	f.finalizeCalls++
	f.lastWrite = w

	now := time.Now().UTC()
	m := f.meeting
	m.Status = StatusCompleted
	m.ChargeStatus = w.ChargeStatus
	m.Outcome = &w.Outcome
	m.Fault = &w.Fault
	m.FinalizedBy = &w.ActorID
	m.FinalizedAt = &now
	f.meeting = m
	return m, nil
}

type fakeEmitter struct {
	notices []notify.Notice
	err     error
}

func (f *fakeEmitter) Notify(_ context.Context, n notify.Notice) error {
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeEmitter) count(kind notify.Kind) int {
	var n int
	for _, notice := range f.notices {
		if notice.Kind == kind {
			n++
		}
	}
	return n
}

type fakeReviewQueue struct {
	opened []string
	err    error
}

func (f *fakeReviewQueue) Open(_ context.Context, meetingID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, meetingID)
	return nil
}

func newFinalizableStore() *fakeStore {
	return &fakeStore{
		meeting: Meeting{
			ID:           "m1",
			HostID:       "host1",
			ScheduledAt:  time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC),
			Status:       StatusCompleted,
			ChargeStatus: ChargePending,
		},
		parts: []Participant{
			{MeetingID: "m1", UserID: "alice", Role: RoleRequester, DisplayName: "Alice"},
			{MeetingID: "m1", UserID: "bob", Role: RoleAccepter, DisplayName: "Bob"},
		},
	}
}

func validParams() FinalizeParams {
	return FinalizeParams{
		MeetingID: "m1",
		ActorID:   "host1",
		ActorRole: auth.RoleHost,
		Outcome:   OutcomeCompleted,
		Fault:     FaultNone,
		Decision:  DecisionCapture,
	}
}

func TestFinalize_InvalidEnumsNameTheField(t *testing.T) {
	coord := NewCoordinator(newFinalizableStore(), &fakeEmitter{})

	cases := []struct {
		mutate func(*FinalizeParams)
		field  string
	}{
		{func(p *FinalizeParams) { p.Outcome = "vanished" }, "outcome"},
		{func(p *FinalizeParams) { p.Fault = "gremlins" }, "fault"},
		{func(p *FinalizeParams) { p.Decision = "charge_twice" }, "charge_decision"},
		{func(p *FinalizeParams) { p.ActorID = "" }, "actor_id"},
	}

	for _, tc := range cases {
		params := validParams()
		tc.mutate(&params)

		_, err := coord.Finalize(context.Background(), params)
		var invalid *InvalidArgumentError
		if !errors.As(err, &invalid) {
			t.Fatalf("field %s: expected InvalidArgumentError, got %v", tc.field, err)
		}
		if invalid.Field != tc.field {
			t.Fatalf("expected offending field %q, got %q", tc.field, invalid.Field)
		}
	}
}

func TestFinalize_NotFound(t *testing.T) {
	store := newFinalizableStore()
	store.missing = true
	coord := NewCoordinator(store, &fakeEmitter{})

	_, err := coord.Finalize(context.Background(), validParams())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFinalize_Authorization(t *testing.T) {
	store := newFinalizableStore()
	coord := NewCoordinator(store, &fakeEmitter{})

	params := validParams()
	params.ActorID = "someone-else"
	params.ActorRole = auth.RoleHost
	if _, err := coord.Finalize(context.Background(), params); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-host, got %v", err)
	}
	if store.finalizeCalls != 0 {
		t.Fatalf("forbidden request must not write")
	}

	params.ActorRole = auth.RoleAdmin
	if _, err := coord.Finalize(context.Background(), params); err != nil {
		t.Fatalf("admin should finalize any meeting, got %v", err)
	}
}

func TestFinalize_CancelledMeetingRejectedWithoutWrites(t *testing.T) {
	store := newFinalizableStore()
	store.meeting.Status = StatusCancelled
	emitter := &fakeEmitter{}
	coord := NewCoordinator(store, emitter)

	_, err := coord.Finalize(context.Background(), validParams())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if store.finalizeCalls != 0 {
		t.Fatalf("expected no writes, got %d", store.finalizeCalls)
	}
	if len(emitter.notices) != 0 {
		t.Fatalf("expected no notifications, got %d", len(emitter.notices))
	}
}

func TestFinalize_ParticipantCardinalityIsFatal(t *testing.T) {
	store := newFinalizableStore()
	store.parts = store.parts[:1]
	coord := NewCoordinator(store, &fakeEmitter{})

	_, err := coord.Finalize(context.Background(), validParams())
	if !errors.Is(err, ErrInconsistent) {
		t.Fatalf("expected ErrInconsistent, got %v", err)
	}
}

func TestFinalize_RefundDecrementsRequesterInsideTheWrite(t *testing.T) {
	store := newFinalizableStore()
	emitter := &fakeEmitter{}
	coord := NewCoordinator(store, emitter)

	params := validParams()
	params.Outcome = OutcomeNoShow
	params.Fault = FaultAccepter
	params.Decision = DecisionRefund

	res, err := coord.Finalize(context.Background(), params)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if res.ChargeStatus != ChargeRefunded || !res.RefundIssued {
		t.Fatalf("expected refunded settlement, got %+v", res)
	}
	if store.lastWrite.RefundUserID != "alice" {
		t.Fatalf("expected requester credit refund for alice, got %q", store.lastWrite.RefundUserID)
	}

	if emitter.count(notify.KindMeetingFinalized) != 1 {
		t.Fatalf("expected one finalize notice, got %d", emitter.count(notify.KindMeetingFinalized))
	}
	n := emitter.notices[0]
	if n.UserID != "alice" {
		t.Fatalf("finalize notice must target the requester, got %q", n.UserID)
	}
	if !strings.Contains(n.Message, "refunded") {
		t.Fatalf("refund notice should mention the refund: %q", n.Message)
	}
}

func TestFinalize_CaptureDoesNotTouchCredits(t *testing.T) {
	store := newFinalizableStore()
	coord := NewCoordinator(store, &fakeEmitter{})

	if _, err := coord.Finalize(context.Background(), validParams()); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if store.lastWrite.RefundUserID != "" {
		t.Fatalf("capture must not move credits, got refund for %q", store.lastWrite.RefundUserID)
	}
}

func TestFinalize_PendingReviewWithFaultEscalates(t *testing.T) {
	store := newFinalizableStore()
	emitter := &fakeEmitter{}
	reviews := &fakeReviewQueue{}
	coord := NewCoordinator(store, emitter).WithReviewQueue(reviews)

	params := validParams()
	params.Outcome = OutcomeEarlyLeave
	params.Fault = FaultBoth
	params.Decision = DecisionPendingReview

	res, err := coord.Finalize(context.Background(), params)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.ChargeStatus != ChargePendingReview {
		t.Fatalf("expected pending_review, got %s", res.ChargeStatus)
	}

	if got := emitter.count(notify.KindMeetingFinalized); got != 1 {
		t.Fatalf("expected 1 finalize notice, got %d", got)
	}
	if got := emitter.count(notify.KindReviewNeeded); got != 1 {
		t.Fatalf("expected 1 ops escalation, got %d", got)
	}
	if got := emitter.count(notify.KindUnderInvestigation); got != 2 {
		t.Fatalf("expected investigation notices to both participants, got %d", got)
	}
	for _, n := range emitter.notices {
		if n.Kind == notify.KindUnderInvestigation && !n.Email {
			t.Fatalf("investigation notice must request email delivery")
		}
	}
	if len(reviews.opened) != 1 || reviews.opened[0] != "m1" {
		t.Fatalf("expected one review case for m1, got %v", reviews.opened)
	}
}

func TestFinalize_PendingReviewWithoutFaultSkipsInvestigation(t *testing.T) {
	store := newFinalizableStore()
	emitter := &fakeEmitter{}
	coord := NewCoordinator(store, emitter).WithReviewQueue(&fakeReviewQueue{})

	params := validParams()
	params.Decision = DecisionPendingReview
	params.Fault = FaultNone

	if _, err := coord.Finalize(context.Background(), params); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := emitter.count(notify.KindUnderInvestigation); got != 0 {
		t.Fatalf("no-fault review must not trigger investigation notices, got %d", got)
	}
	if got := emitter.count(notify.KindReviewNeeded); got != 1 {
		t.Fatalf("expected ops escalation, got %d", got)
	}
}

func TestFinalize_SecondCallIsAlreadyFinalized(t *testing.T) {
	store := newFinalizableStore()
	emitter := &fakeEmitter{}
	coord := NewCoordinator(store, emitter)

	params := validParams()
	first, err := coord.Finalize(context.Background(), params)
	if err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	second, err := coord.Finalize(context.Background(), params)
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
	if second.ChargeStatus != first.ChargeStatus || second.Outcome != first.Outcome || second.Fault != first.Fault {
		t.Fatalf("replay changed the settled state: first=%+v second=%+v", first, second)
	}
	if store.finalizeCalls != 1 {
		t.Fatalf("expected exactly one write, got %d", store.finalizeCalls)
	}
	if got := emitter.count(notify.KindMeetingFinalized); got != 1 {
		t.Fatalf("replay must not re-emit notices, got %d", got)
	}
}

func TestFinalize_EmitterFailureDoesNotFailTheOperation(t *testing.T) {
	store := newFinalizableStore()
	emitter := &fakeEmitter{err: errors.New("smtp exploded")}
	coord := NewCoordinator(store, emitter)

	res, err := coord.Finalize(context.Background(), validParams())
	if err != nil {
		t.Fatalf("notification failure must not fail finalize, got %v", err)
	}
	if res.ChargeStatus != ChargeCaptured {
		t.Fatalf("expected captured settlement, got %s", res.ChargeStatus)
	}
	if store.finalizeCalls != 1 {
		t.Fatalf("expected the settlement write to land, got %d", store.finalizeCalls)
	}
}
