package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Mailer delivers the email rendition of a notice. The real implementation
// lives behind the platform's email provider; the engine only needs the hook.
type Mailer interface {
	Send(ctx context.Context, userID, subject, body string) error
}

// LogMailer records outbound email instead of sending it. Used when no
// provider is configured and in tests.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) Send(_ context.Context, userID, subject, _ string) error {
	m.Log.Info().Str("user_id", userID).Str("subject", subject).Msg("email suppressed (no provider configured)")
	return nil
}

// Dispatcher fans a notice out to the in-app inbox and, when requested, the
// mailer. Channel failures are logged and swallowed so a notification outage
// can never fail the business operation that triggered it.
type Dispatcher struct {
	inbox  InboxStore
	mailer Mailer
	log    zerolog.Logger
}

func NewDispatcher(inbox InboxStore, mailer Mailer, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		inbox:  inbox,
		mailer: mailer,
		log:    log,
	}
}

// Notify implements Emitter. It returns an error only for malformed notices;
// delivery problems are logged at warn level and reported as success.
func (d *Dispatcher) Notify(ctx context.Context, n Notice) error {
	if n.Kind == "" {
		return fmt.Errorf("notify: notice kind required")
	}
	if n.Audience == "" {
		n.Audience = AudienceUser
	}
	if n.Audience == AudienceUser && n.UserID == "" {
		return fmt.Errorf("notify: user notice missing user id")
	}

	if d.inbox != nil {
		if _, err := d.inbox.Insert(ctx, n); err != nil {
			d.log.Warn().Err(err).
				Str("kind", string(n.Kind)).
				Str("user_id", n.UserID).
				Msg("inbox write failed")
		}
	}

	if n.Email && n.UserID != "" && d.mailer != nil {
		if err := d.mailer.Send(ctx, n.UserID, n.Title, n.Message); err != nil {
			d.log.Warn().Err(err).
				Str("kind", string(n.Kind)).
				Str("user_id", n.UserID).
				Msg("email send failed")
		}
	}

	return nil
}
