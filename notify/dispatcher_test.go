package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeInbox struct {
	inserted []Notice
	err      error
}

func (f *fakeInbox) Insert(_ context.Context, n Notice) (Message, error) {
	if f.err != nil {
		return Message{}, f.err
	}
	f.inserted = append(f.inserted, n)
	return Message{ID: "msg-1", Kind: n.Kind}, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Send(_ context.Context, userID, subject, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, userID+":"+subject)
	return nil
}

func TestDispatcher_InboxOnly(t *testing.T) {
	inbox := &fakeInbox{}
	mailer := &fakeMailer{}
	d := NewDispatcher(inbox, mailer, zerolog.Nop())

	n := Notice{UserID: "u1", Kind: KindResponseReceived, Title: "t", Message: "m"}
	if err := d.Notify(context.Background(), n); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(inbox.inserted) != 1 {
		t.Fatalf("expected 1 inbox row, got %d", len(inbox.inserted))
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email without the email flag, got %d", len(mailer.sent))
	}
}

func TestDispatcher_EmailFanout(t *testing.T) {
	inbox := &fakeInbox{}
	mailer := &fakeMailer{}
	d := NewDispatcher(inbox, mailer, zerolog.Nop())

	n := Notice{UserID: "u1", Kind: KindMatchFormed, Title: "It's a match!", Message: "m", Email: true}
	if err := d.Notify(context.Background(), n); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
}

func TestDispatcher_ChannelFailuresAreSwallowed(t *testing.T) {
	inbox := &fakeInbox{err: errors.New("inbox down")}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	d := NewDispatcher(inbox, mailer, zerolog.Nop())

	n := Notice{UserID: "u1", Kind: KindMeetingFinalized, Title: "t", Message: "m", Email: true}
	if err := d.Notify(context.Background(), n); err != nil {
		t.Fatalf("expected channel failures to be swallowed, got %v", err)
	}
}

func TestDispatcher_RejectsMalformedNotice(t *testing.T) {
	d := NewDispatcher(&fakeInbox{}, &fakeMailer{}, zerolog.Nop())

	if err := d.Notify(context.Background(), Notice{UserID: "u1"}); err == nil {
		t.Fatalf("expected error for missing kind")
	}
	if err := d.Notify(context.Background(), Notice{Kind: KindMatchFormed}); err == nil {
		t.Fatalf("expected error for user notice without user id")
	}
}

func TestDispatcher_OpsAudienceSkipsEmail(t *testing.T) {
	inbox := &fakeInbox{}
	mailer := &fakeMailer{}
	d := NewDispatcher(inbox, mailer, zerolog.Nop())

	n := Notice{Audience: AudienceOps, Kind: KindReviewNeeded, Title: "t", Message: "m", Email: true}
	if err := d.Notify(context.Background(), n); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(inbox.inserted) != 1 {
		t.Fatalf("expected ops notice in inbox, got %d rows", len(inbox.inserted))
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("ops notices have no user mailbox, got %d emails", len(mailer.sent))
	}
}
