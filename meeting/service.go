package meeting

import (
	"context"
	"time"

	"dateflow/auth"
)

// LifecycleStore is the persistence port for pre-resolution meeting
// management.
type LifecycleStore interface {
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListParticipants(ctx context.Context, meetingID string) ([]Participant, error)
	Create(ctx context.Context, w CreateWrite) (Meeting, error)
	UpdateStatus(ctx context.Context, meetingID string, status Status) (Meeting, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]Meeting, error)
}

// Service manages the meeting lifecycle up to the point the resolution
// engine takes over: pairing two users, confirming, completing, cancelling,
// and authorized reads.
type Service struct {
	store LifecycleStore
}

func NewService(store LifecycleStore) *Service {
	return &Service{store: store}
}

// PairParams creates one meeting between a requester and an accepter,
// supervised by a host.
type PairParams struct {
	ActorRole   auth.Role
	HostID      string
	RequesterID string
	AccepterID  string
	ScheduledAt *time.Time
}

// Pair creates the meeting, its two participant rows, and charges one
// requester credit. Privileged actors only; pairing/discovery scoring itself
// happens elsewhere.
func (s *Service) Pair(ctx context.Context, params PairParams) (Meeting, error) {
	if !params.ActorRole.Privileged() {
		return Meeting{}, ErrForbidden
	}
	if params.HostID == "" {
		return Meeting{}, &InvalidArgumentError{Field: "host_id", Value: ""}
	}
	if params.RequesterID == "" {
		return Meeting{}, &InvalidArgumentError{Field: "requester_id", Value: ""}
	}
	if params.AccepterID == "" || params.AccepterID == params.RequesterID {
		return Meeting{}, &InvalidArgumentError{Field: "accepter_id", Value: params.AccepterID}
	}

	return s.store.Create(ctx, CreateWrite{
		HostID:      params.HostID,
		RequesterID: params.RequesterID,
		AccepterID:  params.AccepterID,
		ScheduledAt: params.ScheduledAt,
		Status:      StatusConfirmed,
	})
}

// MeetingView bundles a meeting with its participants for read endpoints.
type MeetingView struct {
	Meeting      Meeting
	Participants []Participant
}

// Get returns the meeting if the actor participates in it, hosts it, or
// holds a privileged role.
func (s *Service) Get(ctx context.Context, meetingID, actorID string, role auth.Role) (MeetingView, error) {
	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return MeetingView{}, err
	}

	parts, err := s.store.ListParticipants(ctx, meetingID)
	if err != nil {
		return MeetingView{}, err
	}

	allowed := role.Privileged() || m.HostID == actorID
	for _, p := range parts {
		if p.UserID == actorID {
			allowed = true
		}
	}
	if !allowed {
		return MeetingView{}, ErrForbidden
	}

	return MeetingView{Meeting: m, Participants: parts}, nil
}

// Transition moves a meeting between pre-resolution lifecycle states. Host
// of the meeting or privileged actors only.
func (s *Service) Transition(ctx context.Context, meetingID, actorID string, role auth.Role, next Status) (Meeting, error) {
	switch next {
	case StatusConfirmed, StatusCompleted, StatusCancelled:
	default:
		return Meeting{}, &InvalidArgumentError{Field: "status", Value: string(next)}
	}

	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return Meeting{}, err
	}
	if m.HostID != actorID && !role.Privileged() {
		return Meeting{}, ErrForbidden
	}
	if m.Finalized() || m.Status == StatusCancelled {
		return Meeting{}, ErrInvalidState
	}

	return s.store.UpdateStatus(ctx, meetingID, next)
}

// ListForUser returns meetings visible to the user.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]Meeting, error) {
	return s.store.ListForUser(ctx, userID, limit)
}
