package response

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"dateflow/meeting"
	"dateflow/notify"
)

// Store is the persistence port for responses.
type Store interface {
	Upsert(ctx context.Context, r Response) (Response, error)
	ListByMeeting(ctx context.Context, meetingID string) ([]Response, error)
}

// MeetingStore is the slice of meeting persistence the aggregator reads, plus
// the exactly-once guard for the responses-complete notice. Satisfied by
// meeting.PGStore.
type MeetingStore interface {
	GetMeeting(ctx context.Context, id string) (meeting.Meeting, error)
	ListParticipants(ctx context.Context, meetingID string) ([]meeting.Participant, error)
	MarkDecisionNoticeSent(ctx context.Context, meetingID string) (bool, error)
}

// MatchFormer turns a mutual yes into a durable match. Satisfied by
// match.Service.
type MatchFormer interface {
	Form(ctx context.Context, meetingID string) error
}

// Service is the response aggregator: it accepts one participant's decision
// and reconciles the pair into match / no-match / still pending.
type Service struct {
	store    Store
	meetings MeetingStore
	matches  MatchFormer
	emitter  notify.Emitter
	log      zerolog.Logger
}

func NewService(store Store, meetings MeetingStore, matches MatchFormer, emitter notify.Emitter) *Service {
	return &Service{
		store:    store,
		meetings: meetings,
		matches:  matches,
		emitter:  emitter,
		log:      zerolog.Nop(),
	}
}

func (s *Service) WithLogger(log zerolog.Logger) *Service {
	s.log = log
	return s
}

// SubmitParams is one response submission. PartnerName personalizes the
// agreement statement; when empty the stored display name of the other
// participant is used.
type SubmitParams struct {
	MeetingID   string
	UserID      string
	Decision    Decision
	PartnerName string
}

// Result reports the combined state after one submission.
type Result struct {
	Complete bool `json:"complete"`
	Matched  bool `json:"matched"`
}

// Submit upserts the caller's decision and evaluates the pair. Only
// participants of a completed meeting may respond. A mutual yes forms the
// match; any other complete combination sends both participants a
// responses-complete notice exactly once per meeting.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (Result, error) {
	if !params.Decision.valid() {
		return Result{}, &meeting.InvalidArgumentError{Field: "response", Value: string(params.Decision)}
	}
	if params.UserID == "" {
		return Result{}, &meeting.InvalidArgumentError{Field: "user_id", Value: ""}
	}

	m, err := s.meetings.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		return Result{}, err
	}
	if m.Status != meeting.StatusCompleted {
		return Result{}, meeting.ErrInvalidState
	}

	parts, err := s.meetings.ListParticipants(ctx, params.MeetingID)
	if err != nil {
		return Result{}, err
	}

	var submitter, other meeting.Participant
	var isParticipant bool
	for _, p := range parts {
		if p.UserID == params.UserID {
			submitter, isParticipant = p, true
		} else {
			other = p
		}
	}
	if !isParticipant {
		return Result{}, meeting.ErrForbidden
	}

	partnerName := params.PartnerName
	if partnerName == "" {
		partnerName = other.DisplayName
	}

	if _, err := s.store.Upsert(ctx, Response{
		MeetingID: params.MeetingID,
		UserID:    params.UserID,
		Decision:  params.Decision,
		Statement: Statement(params.Decision, submitter.DisplayName, partnerName),
	}); err != nil {
		return Result{}, err
	}

	// Fires on every submit, including resubmissions.
	if other.UserID != "" {
		title, message := notify.ResponseReceivedNotice()
		s.emit(ctx, notify.Notice{
			UserID:  other.UserID,
			Kind:    notify.KindResponseReceived,
			Title:   title,
			Message: message,
			Data:    map[string]any{"meeting_id": params.MeetingID},
		})
	}

	responses, err := s.store.ListByMeeting(ctx, params.MeetingID)
	if err != nil {
		return Result{}, err
	}
	if len(responses) < 2 {
		return Result{Complete: false}, nil
	}

	bothYes := true
	for _, r := range responses {
		if r.Decision != DecisionYes {
			bothYes = false
		}
	}

	if bothYes {
		// Formation failures surface: the caller must never be told a
		// match exists when the insert did not commit.
		if err := s.matches.Form(ctx, params.MeetingID); err != nil {
			return Result{}, fmt.Errorf("response: form match: %w", err)
		}
		return Result{Complete: true, Matched: true}, nil
	}

	s.sendDecisionNotice(ctx, params.MeetingID, parts)
	return Result{Complete: true, Matched: false}, nil
}

// ListByMeeting exposes the stored responses for authorized reads.
func (s *Service) ListByMeeting(ctx context.Context, meetingID string) ([]Response, error) {
	return s.store.ListByMeeting(ctx, meetingID)
}

// sendDecisionNotice delivers the no-match responses-complete notice to both
// participants at most once per meeting. The conditional flip of
// decision_notice_sent elects a single sender; everything after the flip is
// best-effort.
func (s *Service) sendDecisionNotice(ctx context.Context, meetingID string, parts []meeting.Participant) {
	won, err := s.meetings.MarkDecisionNoticeSent(ctx, meetingID)
	if err != nil {
		s.log.Warn().Err(err).Str("meeting_id", meetingID).Msg("decision notice guard failed")
		return
	}
	if !won {
		return
	}

	title, message := notify.ResponsesCompleteNotice()
	for _, p := range parts {
		s.emit(ctx, notify.Notice{
			UserID:  p.UserID,
			Kind:    notify.KindResponsesComplete,
			Title:   title,
			Message: message,
			Data:    map[string]any{"meeting_id": meetingID},
		})
	}
}

func (s *Service) emit(ctx context.Context, n notify.Notice) {
	if err := s.emitter.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).
			Str("kind", string(n.Kind)).
			Str("user_id", n.UserID).
			Msg("notification emit failed")
	}
}
