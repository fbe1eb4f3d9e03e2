package response

import (
	"fmt"
	"time"
)

// Decision is a participant's post-meeting answer.
type Decision string

const (
	DecisionYes Decision = "yes"
	DecisionNo  Decision = "no"
)

func (d Decision) valid() bool {
	return d == DecisionYes || d == DecisionNo
}

// Response is one participant's answer for one meeting. At most one row per
// (meeting, user) exists; resubmission overwrites decision, statement and
// signed_at in place.
type Response struct {
	MeetingID string    `json:"meeting_id"`
	UserID    string    `json:"user_id"`
	Decision  Decision  `json:"decision"`
	Statement string    `json:"statement"`
	SignedAt  time.Time `json:"signed_at"`
}

// Statement renders the agreement text recorded with a response. Two fixed
// templates, one per decision value; deterministic given the same names.
func Statement(decision Decision, submitterName, partnerName string) string {
	if decision == DecisionYes {
		return fmt.Sprintf("I, %s, confirm that I met with %s and would like to stay in touch.",
			submitterName, partnerName)
	}
	return fmt.Sprintf("I, %s, confirm that I met with %s and have decided not to continue.",
		submitterName, partnerName)
}
