package notify

import (
	"context"
	"time"
)

// Audience selects who a notice is addressed to.
type Audience string

const (
	// AudienceUser targets a single platform user's inbox.
	AudienceUser Audience = "user"
	// AudienceOps targets the operations/admin channel; UserID is empty.
	AudienceOps Audience = "ops"
)

// Kind identifies the fixed template a notice was rendered from.
type Kind string

const (
	KindResponseReceived   Kind = "response_received"
	KindResponsesComplete  Kind = "responses_complete"
	KindMatchFormed        Kind = "match_formed"
	KindMeetingFinalized   Kind = "meeting_finalized"
	KindReviewNeeded       Kind = "review_needed"
	KindUnderInvestigation Kind = "under_investigation"
)

// Notice is one rendered notification ready for delivery. Email requests an
// additional email send on top of the in-app inbox row.
type Notice struct {
	UserID   string
	Audience Audience
	Kind     Kind
	Title    string
	Message  string
	Email    bool
	Data     map[string]any
}

// Emitter delivers notices. Implementations are fire-and-forget from the
// caller's perspective: delivery-channel failures are logged, never returned
// as business failures.
type Emitter interface {
	Notify(ctx context.Context, n Notice) error
}

// Message is a stored inbox row.
type Message struct {
	ID        string
	UserID    *string
	Audience  Audience
	Kind      Kind
	Title     string
	Message   string
	Payload   []byte
	CreatedAt time.Time
	ReadAt    *time.Time
}
