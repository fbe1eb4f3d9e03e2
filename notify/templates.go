package notify

import (
	"fmt"
	"time"
)

// Fixed notification copy. The engine renders these verbatim; any further
// presentation formatting belongs to the UI layer.

var outcomePhrases = map[string]string{
	"completed":          "your meeting finished as planned",
	"no_show":            "the other participant did not show up",
	"early_leave":        "the meeting ended before its scheduled time",
	"network_disconnect": "the meeting was cut short by a connection problem",
}

var chargePhrases = map[string]string{
	"capture":        "Your meeting credit has been used for this meeting.",
	"refund":         "Your meeting credit has been refunded.",
	"pending_review": "The charge for this meeting is on hold while our team reviews it.",
}

// FinalizedNotice renders the requester-facing settlement notice, keyed by
// the (outcome, charge decision) pair recorded at finalize.
func FinalizedNotice(outcome, chargeDecision string) (title, message string) {
	phrase, ok := outcomePhrases[outcome]
	if !ok {
		phrase = "your meeting has been reviewed"
	}
	charge, ok := chargePhrases[chargeDecision]
	if !ok {
		charge = chargePhrases["pending_review"]
	}
	title = "Your meeting has been finalized"
	message = fmt.Sprintf("A host reviewed your meeting: %s. %s", phrase, charge)
	return title, message
}

// ResponseReceivedNotice tells a participant the other side has answered,
// without revealing the decision.
func ResponseReceivedNotice() (title, message string) {
	return "Your date has responded",
		"The person you met has submitted their response. You'll both hear the result once your own response is in."
}

// ResponsesCompleteNotice is sent to both participants when the combined
// result is anything other than a mutual yes.
func ResponsesCompleteNotice() (title, message string) {
	return "Both responses are in",
		"Both of you have responded and this one wasn't a match. Your profile stays active and visible — your next meeting is waiting."
}

// MatchFormedNotice congratulates one participant, personalized with the
// other's display name.
func MatchFormedNotice(partnerName string) (title, message string) {
	return "It's a match!",
		fmt.Sprintf("You and %s both said yes. Messaging is now open — say hi!", partnerName)
}

// ReviewNeededNotice is the operations-channel escalation for settlements
// parked in pending_review.
func ReviewNeededNotice(meetingID string) (title, message string) {
	return "Meeting settlement needs review",
		fmt.Sprintf("Meeting %s was finalized with charge decision pending_review and needs a manual settlement decision.", meetingID)
}

// InvestigationNotice informs both participants that the meeting is being
// looked into. Sent only for faulted pending_review settlements.
func InvestigationNotice(meetingDate time.Time) (title, message string) {
	return "Your meeting is under investigation",
		fmt.Sprintf("Your meeting on %s is being investigated by our team. We'll contact you once the review is complete.",
			meetingDate.Format("January 2, 2006"))
}
