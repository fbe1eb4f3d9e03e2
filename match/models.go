package match

import (
	"errors"
	"time"
)

var (
	ErrExists   = errors.New("match: match already exists for meeting")
	ErrNotFound = errors.New("match: match not found")
)

// Match is the durable record of a mutual yes. One per meeting, enforced by
// a unique constraint on meeting_id; messaging opens the moment it exists.
type Match struct {
	ID               string    `json:"id"`
	MeetingID        string    `json:"meeting_id"`
	RequesterID      string    `json:"requester_id"`
	AccepterID       string    `json:"accepter_id"`
	MessagingEnabled bool      `json:"messaging_enabled"`
	MatchedAt        time.Time `json:"matched_at"`
}
