package meeting

import (
	"errors"
	"fmt"
	"time"
)

// Status is the meeting lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ChargeStatus is the financial state of the meeting's charge.
type ChargeStatus string

const (
	ChargePending       ChargeStatus = "pending"
	ChargeCaptured      ChargeStatus = "captured"
	ChargeRefunded      ChargeStatus = "refunded"
	ChargePendingReview ChargeStatus = "pending_review"
)

// Outcome is the host's record of how the meeting actually went.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomeNoShow            Outcome = "no_show"
	OutcomeEarlyLeave        Outcome = "early_leave"
	OutcomeNetworkDisconnect Outcome = "network_disconnect"
)

// Fault records which party, if any, is responsible for an incomplete meeting.
type Fault string

const (
	FaultNone      Fault = "no_fault"
	FaultRequester Fault = "requester_fault"
	FaultAccepter  Fault = "accepter_fault"
	FaultBoth      Fault = "both_fault"
)

// ChargeDecision is the authoritative financial instruction chosen by the
// finalizing actor.
type ChargeDecision string

const (
	DecisionCapture       ChargeDecision = "capture"
	DecisionRefund        ChargeDecision = "refund"
	DecisionPendingReview ChargeDecision = "pending_review"
)

// ParticipantRole distinguishes the two sides of a meeting.
type ParticipantRole string

const (
	RoleRequester ParticipantRole = "requester"
	RoleAccepter  ParticipantRole = "accepter"
)

// Meeting is one scheduled video session between two participants and the
// aggregate root for responses, the match, and the settlement.
// Outcome, Fault, FinalizedBy and FinalizedAt are write-once: they are set by
// exactly one successful finalize and never change afterwards.
type Meeting struct {
	ID                 string
	HostID             string
	ScheduledAt        time.Time
	Status             Status
	ChargeStatus       ChargeStatus
	Outcome            *Outcome
	Fault              *Fault
	MatchedAt          *time.Time
	DecisionNoticeSent bool
	FinalizedBy        *string
	FinalizedAt        *time.Time
	HostNotes          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Finalized reports whether the write-once resolution fields have been set.
func (m Meeting) Finalized() bool {
	return m.FinalizedAt != nil
}

// Participant is one user's role within a meeting. Exactly two exist per
// meeting, with distinct roles.
type Participant struct {
	MeetingID   string
	UserID      string
	Role        ParticipantRole
	DisplayName string
}

var (
	// ErrNotFound signals the meeting does not exist.
	ErrNotFound = errors.New("meeting: not found")
	// ErrForbidden signals the actor lacks authority over this meeting.
	ErrForbidden = errors.New("meeting: forbidden")
	// ErrInvalidState signals the meeting lifecycle does not permit the operation.
	ErrInvalidState = errors.New("meeting: lifecycle state does not permit operation")
	// ErrAlreadyFinalized signals a lost race on the write-once resolution
	// fields. Callers should treat it as success-adjacent and read the
	// current state.
	ErrAlreadyFinalized = errors.New("meeting: already finalized")
	// ErrInconsistent signals a participant-cardinality violation. This is a
	// data-integrity failure upstream of the engine, never user error.
	ErrInconsistent = errors.New("meeting: participant records inconsistent")
)

// InvalidArgumentError reports a malformed enum value, naming the field.
type InvalidArgumentError struct {
	Field string
	Value string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("meeting: invalid %s %q", e.Field, e.Value)
}

func (o Outcome) valid() bool {
	switch o {
	case OutcomeCompleted, OutcomeNoShow, OutcomeEarlyLeave, OutcomeNetworkDisconnect:
		return true
	default:
		return false
	}
}

func (f Fault) valid() bool {
	switch f {
	case FaultNone, FaultRequester, FaultAccepter, FaultBoth:
		return true
	default:
		return false
	}
}

func (d ChargeDecision) valid() bool {
	switch d {
	case DecisionCapture, DecisionRefund, DecisionPendingReview:
		return true
	default:
		return false
	}
}
