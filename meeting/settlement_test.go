package meeting

import "testing"

// Every outcome/decision pair must resolve exactly per the decision table;
// fault is accepted for all values and never changes the result.
func TestSettle_FullTable(t *testing.T) {
	outcomes := []Outcome{OutcomeCompleted, OutcomeNoShow, OutcomeEarlyLeave, OutcomeNetworkDisconnect}
	faults := []Fault{FaultNone, FaultRequester, FaultAccepter, FaultBoth}

	cases := []struct {
		decision     ChargeDecision
		wantStatus   ChargeStatus
		wantRefunded bool
	}{
		{DecisionCapture, ChargeCaptured, false},
		{DecisionRefund, ChargeRefunded, true},
		{DecisionPendingReview, ChargePendingReview, false},
	}

	for _, outcome := range outcomes {
		for _, tc := range cases {
			for _, fault := range faults {
				got := Settle(outcome, fault, tc.decision)
				if got.ChargeStatus != tc.wantStatus {
					t.Errorf("Settle(%s, %s, %s): charge status %s, want %s",
						outcome, fault, tc.decision, got.ChargeStatus, tc.wantStatus)
				}
				if got.RefundIssued != tc.wantRefunded {
					t.Errorf("Settle(%s, %s, %s): refund %v, want %v",
						outcome, fault, tc.decision, got.RefundIssued, tc.wantRefunded)
				}
			}
		}
	}
}

func TestSettle_UnknownDecisionParksForReview(t *testing.T) {
	got := Settle(OutcomeCompleted, FaultNone, ChargeDecision("charge_twice"))
	if got.ChargeStatus != ChargePendingReview || got.RefundIssued {
		t.Fatalf("expected pending_review fallback, got %+v", got)
	}
}
