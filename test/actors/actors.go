package actors

import (
	"context"
	"math/rand"
	"time"

	"dateflow/auth"
	"dateflow/meeting"
	"dateflow/notify"
	"dateflow/response"
)

var (
	outcomes = []meeting.Outcome{
		meeting.OutcomeCompleted, meeting.OutcomeNoShow,
		meeting.OutcomeEarlyLeave, meeting.OutcomeNetworkDisconnect,
	}
	faults = []meeting.Fault{
		meeting.FaultNone, meeting.FaultRequester,
		meeting.FaultAccepter, meeting.FaultBoth,
	}
	decisions = []meeting.ChargeDecision{
		meeting.DecisionCapture, meeting.DecisionRefund, meeting.DecisionPendingReview,
	}
)

// Finalizer hammers the same meeting with randomized finalize requests. Under
// contention everything except the single winner must come back as
// ErrAlreadyFinalized; connection failures injected by chaos are retried.
func Finalizer(ctx context.Context, coord *meeting.Coordinator, meetingID, hostID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, _ = coord.Finalize(ctx, meeting.FinalizeParams{
			MeetingID: meetingID,
			ActorID:   hostID,
			ActorRole: auth.RoleHost,
			Outcome:   outcomes[rand.Intn(len(outcomes))],
			Fault:     faults[rand.Intn(len(faults))],
			Decision:  decisions[rand.Intn(len(decisions))],
		})
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Responder submits randomized decisions for one participant, racing the
// other responder over match formation and the responses-complete notice.
func Responder(ctx context.Context, svc *response.Service, meetingID, userID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		decision := response.DecisionYes
		if rand.Intn(4) == 0 {
			decision = response.DecisionNo
		}
		_, _ = svc.Submit(ctx, response.SubmitParams{
			MeetingID: meetingID,
			UserID:    userID,
			Decision:  decision,
		})
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// Pairer keeps creating fresh meetings and walking them to completed,
// exercising the create transaction and the requester credit charge.
func Pairer(ctx context.Context, svc *meeting.Service, hostID, requesterID, accepterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		m, err := svc.Pair(ctx, meeting.PairParams{
			ActorRole:   auth.RoleAdmin,
			HostID:      hostID,
			RequesterID: requesterID,
			AccepterID:  accepterID,
		})
		if err == nil {
			_, _ = svc.Transition(ctx, m.ID, hostID, auth.RoleHost, meeting.StatusCompleted)
		}
		time.Sleep(time.Duration(100+rand.Intn(100)) * time.Millisecond)
	}
}

// InboxReader drains a user's inbox and marks random messages read, keeping
// read traffic on the notifications table during the run.
func InboxReader(ctx context.Context, inbox *notify.PGInbox, userID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		msgs, err := inbox.ListForUser(ctx, userID, 20)
		if err == nil && len(msgs) > 0 {
			_, _ = inbox.MarkRead(ctx, userID, msgs[rand.Intn(len(msgs))].ID)
		}
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}
