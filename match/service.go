package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"dateflow/meeting"
	"dateflow/notify"
)

// Store is the persistence port for matches.
type Store interface {
	Create(ctx context.Context, meetingID, requesterID, accepterID string) (Match, error)
	GetByMeeting(ctx context.Context, meetingID string) (Match, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]Match, error)
}

// ParticipantLister resolves the meeting's pair. Satisfied by
// meeting.PGStore.
type ParticipantLister interface {
	ListParticipants(ctx context.Context, meetingID string) ([]meeting.Participant, error)
}

// Service forms matches out of mutual-yes meetings.
type Service struct {
	store    Store
	meetings ParticipantLister
	emitter  notify.Emitter
	log      zerolog.Logger
}

func NewService(store Store, meetings ParticipantLister, emitter notify.Emitter) *Service {
	return &Service{
		store:    store,
		meetings: meetings,
		emitter:  emitter,
		log:      zerolog.Nop(),
	}
}

func (s *Service) WithLogger(log zerolog.Logger) *Service {
	s.log = log
	return s
}

// Form creates the match for a meeting. Idempotent: when the match already
// exists (a concurrent aggregator won the insert) the existing record stands
// and no notifications are re-sent. Only the first creation emits the two
// personalized match notices.
func (s *Service) Form(ctx context.Context, meetingID string) error {
	parts, err := s.meetings.ListParticipants(ctx, meetingID)
	if err != nil {
		return err
	}

	var requester, accepter meeting.Participant
	for _, p := range parts {
		switch p.Role {
		case meeting.RoleRequester:
			requester = p
		case meeting.RoleAccepter:
			accepter = p
		}
	}
	if requester.UserID == "" || accepter.UserID == "" {
		return fmt.Errorf("match: form %s: %w", meetingID, meeting.ErrInconsistent)
	}

	created, err := s.store.Create(ctx, meetingID, requester.UserID, accepter.UserID)
	if errors.Is(err, ErrExists) {
		return nil
	}
	if err != nil {
		return err
	}

	s.emitMatchNotice(ctx, created, requester.UserID, accepter.DisplayName)
	s.emitMatchNotice(ctx, created, accepter.UserID, requester.DisplayName)
	return nil
}

// ListForUser returns the user's matches.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]Match, error) {
	return s.store.ListForUser(ctx, userID, limit)
}

func (s *Service) emitMatchNotice(ctx context.Context, m Match, userID, partnerName string) {
	title, message := notify.MatchFormedNotice(partnerName)
	err := s.emitter.Notify(ctx, notify.Notice{
		UserID:  userID,
		Kind:    notify.KindMatchFormed,
		Title:   title,
		Message: message,
		Email:   true,
		Data: map[string]any{
			"match_id":   m.ID,
			"meeting_id": m.MeetingID,
		},
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("match_id", m.ID).
			Str("user_id", userID).
			Msg("match notice emit failed")
	}
}
