package meeting

// Settlement is the derived financial result of finalizing a meeting.
type Settlement struct {
	ChargeStatus ChargeStatus
	RefundIssued bool
}

// Settle maps the finalizing actor's (outcome, fault, charge decision) triple
// to the resulting settlement. The charge decision is authoritative; outcome
// and fault are recorded for audit and notification wording but never
// override it. Pure function, no I/O.
//
// Callers validate the decision before reaching this table. The default
// branch still maps to pending_review so a missed validation parks the money
// in front of a human instead of capturing or refunding it.
func Settle(outcome Outcome, fault Fault, decision ChargeDecision) Settlement {
	_ = outcome
	_ = fault

	switch decision {
	case DecisionCapture:
		return Settlement{ChargeStatus: ChargeCaptured, RefundIssued: false}
	case DecisionRefund:
		return Settlement{ChargeStatus: ChargeRefunded, RefundIssued: true}
	default:
		return Settlement{ChargeStatus: ChargePendingReview, RefundIssued: false}
	}
}
