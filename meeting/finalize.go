package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dateflow/auth"
	"dateflow/notify"
)

// Store is the persistence port the Coordinator needs. Implemented by
// PGStore; unit tests substitute an in-memory fake.
type Store interface {
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListParticipants(ctx context.Context, meetingID string) ([]Participant, error)
	Finalize(ctx context.Context, w FinalizeWrite) (Meeting, error)
}

// ReviewQueue opens a manual-review case for pending_review settlements.
type ReviewQueue interface {
	Open(ctx context.Context, meetingID, openedBy string) error
}

// FinalizeParams is one host/administrator finalize request.
type FinalizeParams struct {
	MeetingID string
	ActorID   string
	ActorRole auth.Role
	Outcome   Outcome
	Fault     Fault
	Decision  ChargeDecision
	Notes     string
}

// FinalizeResult reports the settlement applied (or, on ErrAlreadyFinalized,
// the settlement already in place).
type FinalizeResult struct {
	MeetingID    string
	ChargeStatus ChargeStatus
	RefundIssued bool
	Outcome      Outcome
	Fault        Fault
	FinalizedAt  time.Time
}

// Coordinator processes finalize requests: it validates authority and
// meeting state, applies the settlement policy, persists the write-once
// transition, and emits the required notification and escalation effects.
type Coordinator struct {
	store   Store
	emitter notify.Emitter
	reviews ReviewQueue
	log     zerolog.Logger
}

func NewCoordinator(store Store, emitter notify.Emitter) *Coordinator {
	return &Coordinator{
		store:   store,
		emitter: emitter,
		log:     zerolog.Nop(),
	}
}

func (c *Coordinator) WithReviewQueue(q ReviewQueue) *Coordinator {
	c.reviews = q
	return c
}

func (c *Coordinator) WithLogger(log zerolog.Logger) *Coordinator {
	c.log = log
	return c
}

// Finalize applies one resolution to a meeting. The state transition and any
// refund credit movement are atomic; notification emission afterwards is
// best-effort and never fails the operation. A second finalize for the same
// meeting returns ErrAlreadyFinalized together with the settled result.
func (c *Coordinator) Finalize(ctx context.Context, params FinalizeParams) (FinalizeResult, error) {
	if !params.Outcome.valid() {
		return FinalizeResult{}, &InvalidArgumentError{Field: "outcome", Value: string(params.Outcome)}
	}
	if !params.Fault.valid() {
		return FinalizeResult{}, &InvalidArgumentError{Field: "fault", Value: string(params.Fault)}
	}
	if !params.Decision.valid() {
		return FinalizeResult{}, &InvalidArgumentError{Field: "charge_decision", Value: string(params.Decision)}
	}
	if params.ActorID == "" {
		return FinalizeResult{}, &InvalidArgumentError{Field: "actor_id", Value: ""}
	}

	m, err := c.store.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		return FinalizeResult{}, err
	}

	if m.HostID != params.ActorID && !params.ActorRole.Privileged() {
		return FinalizeResult{}, ErrForbidden
	}

	if m.Status != StatusConfirmed && m.Status != StatusCompleted {
		return FinalizeResult{}, ErrInvalidState
	}

	requester, accepter, err := c.loadPair(ctx, params.MeetingID)
	if err != nil {
		return FinalizeResult{}, err
	}

	settlement := Settle(params.Outcome, params.Fault, params.Decision)

	write := FinalizeWrite{
		MeetingID:    params.MeetingID,
		ActorID:      params.ActorID,
		Outcome:      params.Outcome,
		Fault:        params.Fault,
		ChargeStatus: settlement.ChargeStatus,
		Notes:        params.Notes,
	}
	if settlement.RefundIssued {
		write.RefundUserID = requester.UserID
	}

	updated, err := c.store.Finalize(ctx, write)
	if errors.Is(err, ErrAlreadyFinalized) {
		return resultFrom(updated), ErrAlreadyFinalized
	}
	if err != nil {
		return FinalizeResult{}, err
	}

	c.emitFinalizeEffects(ctx, updated, params, settlement, requester, accepter)

	return resultFrom(updated), nil
}

// loadPair fetches the two participants and splits them by role. Anything
// other than exactly one requester and one accepter is a data-integrity
// violation upstream of this engine.
func (c *Coordinator) loadPair(ctx context.Context, meetingID string) (requester, accepter Participant, err error) {
	parts, err := c.store.ListParticipants(ctx, meetingID)
	if err != nil {
		return Participant{}, Participant{}, err
	}

	var haveRequester, haveAccepter bool
	for _, p := range parts {
		switch p.Role {
		case RoleRequester:
			requester, haveRequester = p, true
		case RoleAccepter:
			accepter, haveAccepter = p, true
		}
	}
	if len(parts) != 2 || !haveRequester || !haveAccepter {
		c.log.Error().
			Str("meeting_id", meetingID).
			Int("participants", len(parts)).
			Msg("participant cardinality violated")
		return Participant{}, Participant{}, fmt.Errorf("meeting: load participants: %w", ErrInconsistent)
	}
	return requester, accepter, nil
}

// emitFinalizeEffects runs the best-effort side of finalize. Every failure
// here is logged and dropped: the committed settlement is the source of
// truth.
func (c *Coordinator) emitFinalizeEffects(ctx context.Context, m Meeting, params FinalizeParams, settlement Settlement, requester, accepter Participant) {
	title, message := notify.FinalizedNotice(string(params.Outcome), string(params.Decision))
	c.emit(ctx, notify.Notice{
		UserID:  requester.UserID,
		Kind:    notify.KindMeetingFinalized,
		Title:   title,
		Message: message,
		Data: map[string]any{
			"meeting_id":      m.ID,
			"outcome":         params.Outcome,
			"charge_decision": params.Decision,
			"charge_status":   settlement.ChargeStatus,
			"refund_issued":   settlement.RefundIssued,
		},
	})

	if params.Decision == DecisionPendingReview {
		if c.reviews != nil {
			if err := c.reviews.Open(ctx, m.ID, params.ActorID); err != nil {
				c.log.Warn().Err(err).Str("meeting_id", m.ID).Msg("open review case failed")
			}
		}

		title, message = notify.ReviewNeededNotice(m.ID)
		c.emit(ctx, notify.Notice{
			Audience: notify.AudienceOps,
			Kind:     notify.KindReviewNeeded,
			Title:    title,
			Message:  message,
			Data:     map[string]any{"meeting_id": m.ID, "fault": params.Fault},
		})

		if params.Fault != FaultNone {
			title, message = notify.InvestigationNotice(m.ScheduledAt)
			for _, p := range []Participant{requester, accepter} {
				c.emit(ctx, notify.Notice{
					UserID:  p.UserID,
					Kind:    notify.KindUnderInvestigation,
					Title:   title,
					Message: message,
					Email:   true,
					Data:    map[string]any{"meeting_id": m.ID, "meeting_date": m.ScheduledAt},
				})
			}
		}
	}
}

func (c *Coordinator) emit(ctx context.Context, n notify.Notice) {
	if err := c.emitter.Notify(ctx, n); err != nil {
		c.log.Warn().Err(err).
			Str("kind", string(n.Kind)).
			Str("user_id", n.UserID).
			Msg("notification emit failed")
	}
}

func resultFrom(m Meeting) FinalizeResult {
	res := FinalizeResult{
		MeetingID:    m.ID,
		ChargeStatus: m.ChargeStatus,
		RefundIssued: m.ChargeStatus == ChargeRefunded,
	}
	if m.Outcome != nil {
		res.Outcome = *m.Outcome
	}
	if m.Fault != nil {
		res.Fault = *m.Fault
	}
	if m.FinalizedAt != nil {
		res.FinalizedAt = *m.FinalizedAt
	}
	return res
}
