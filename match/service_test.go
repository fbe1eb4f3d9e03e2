package match

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dateflow/meeting"
	"dateflow/notify"
)

type fakeStore struct {
	byMeeting map[string]Match
	creates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byMeeting: make(map[string]Match)}
}

func (f *fakeStore) Create(_ context.Context, meetingID, requesterID, accepterID string) (Match, error) {
	if _, ok := f.byMeeting[meetingID]; ok {
		return Match{}, ErrExists
	}
	f.creates++
	m := Match{
		ID:               "match-" + meetingID,
		MeetingID:        meetingID,
		RequesterID:      requesterID,
		AccepterID:       accepterID,
		MessagingEnabled: true,
		MatchedAt:        time.Now(),
	}
	f.byMeeting[meetingID] = m
	return m, nil
}

func (f *fakeStore) GetByMeeting(_ context.Context, meetingID string) (Match, error) {
	m, ok := f.byMeeting[meetingID]
	if !ok {
		return Match{}, ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) ListForUser(_ context.Context, userID string, _ int) ([]Match, error) {
	var out []Match
	for _, m := range f.byMeeting {
		if m.RequesterID == userID || m.AccepterID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeParticipants struct {
	parts []meeting.Participant
}

func (f *fakeParticipants) ListParticipants(_ context.Context, _ string) ([]meeting.Participant, error) {
	return f.parts, nil
}

type fakeEmitter struct {
	notices []notify.Notice
}

func (f *fakeEmitter) Notify(_ context.Context, n notify.Notice) error {
	f.notices = append(f.notices, n)
	return nil
}

func pairParticipants() *fakeParticipants {
	return &fakeParticipants{parts: []meeting.Participant{
		{MeetingID: "m1", UserID: "alice", Role: meeting.RoleRequester, DisplayName: "Alice"},
		{MeetingID: "m1", UserID: "bob", Role: meeting.RoleAccepter, DisplayName: "Bob"},
	}}
}

func TestForm_CreatesMatchAndNotifiesBoth(t *testing.T) {
	store := newFakeStore()
	emitter := &fakeEmitter{}
	svc := NewService(store, pairParticipants(), emitter)

	if err := svc.Form(context.Background(), "m1"); err != nil {
		t.Fatalf("form: %v", err)
	}

	m, err := store.GetByMeeting(context.Background(), "m1")
	if err != nil {
		t.Fatalf("match not created: %v", err)
	}
	if !m.MessagingEnabled {
		t.Fatalf("messaging must open on creation")
	}

	if len(emitter.notices) != 2 {
		t.Fatalf("expected 2 match notices, got %d", len(emitter.notices))
	}
	byUser := map[string]notify.Notice{}
	for _, n := range emitter.notices {
		if n.Kind != notify.KindMatchFormed || !n.Email {
			t.Fatalf("unexpected notice: %+v", n)
		}
		byUser[n.UserID] = n
	}
	if !strings.Contains(byUser["alice"].Message, "Bob") {
		t.Fatalf("alice's notice not personalized: %q", byUser["alice"].Message)
	}
	if !strings.Contains(byUser["bob"].Message, "Alice") {
		t.Fatalf("bob's notice not personalized: %q", byUser["bob"].Message)
	}
}

func TestForm_SecondCallIsIdempotent(t *testing.T) {
	store := newFakeStore()
	emitter := &fakeEmitter{}
	svc := NewService(store, pairParticipants(), emitter)

	if err := svc.Form(context.Background(), "m1"); err != nil {
		t.Fatalf("form (first): %v", err)
	}
	if err := svc.Form(context.Background(), "m1"); err != nil {
		t.Fatalf("form (second): %v", err)
	}

	if store.creates != 1 {
		t.Fatalf("expected one insert, got %d", store.creates)
	}
	if len(emitter.notices) != 2 {
		t.Fatalf("replay re-sent notices: %d total, want 2", len(emitter.notices))
	}
}

func TestForm_BrokenPairIsInconsistent(t *testing.T) {
	store := newFakeStore()
	parts := &fakeParticipants{parts: []meeting.Participant{
		{MeetingID: "m1", UserID: "alice", Role: meeting.RoleRequester, DisplayName: "Alice"},
	}}
	svc := NewService(store, parts, &fakeEmitter{})

	err := svc.Form(context.Background(), "m1")
	if !errors.Is(err, meeting.ErrInconsistent) {
		t.Fatalf("expected ErrInconsistent, got %v", err)
	}
	if store.creates != 0 {
		t.Fatalf("broken pair must not create a match")
	}
}
