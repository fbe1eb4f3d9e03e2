package review

import "time"

// Status represents the lifecycle of a review case.
type Status string

const (
	StatusUnderReview Status = "under_review"
	StatusResolved    Status = "resolved"
)

// Case mirrors the review_cases table. One is opened for every settlement
// parked in pending_review.
type Case struct {
	ID         string     `json:"id"`
	MeetingID  string     `json:"meeting_id"`
	Status     Status     `json:"status"`
	OpenedBy   string     `json:"opened_by"`
	ResolvedBy *string    `json:"resolved_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
