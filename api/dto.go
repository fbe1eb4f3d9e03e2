package api

import (
	"encoding/json"
	"time"

	"dateflow/auth"
	"dateflow/meeting"
	"dateflow/notify"
)

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	UsedCredits int    `json:"used_credits"`
	CreatedAt   string `json:"created_at"`
}

func toUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		UsedCredits: u.UsedCredits,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

type participantResponse struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

type meetingResponse struct {
	ID           string                `json:"id"`
	HostID       string                `json:"host_id"`
	ScheduledAt  string                `json:"scheduled_at"`
	Status       string                `json:"status"`
	ChargeStatus string                `json:"charge_status"`
	Outcome      *string               `json:"outcome,omitempty"`
	Fault        *string               `json:"fault,omitempty"`
	MatchedAt    *string               `json:"matched_at,omitempty"`
	FinalizedBy  *string               `json:"finalized_by,omitempty"`
	FinalizedAt  *string               `json:"finalized_at,omitempty"`
	HostNotes    *string               `json:"host_notes,omitempty"`
	CreatedAt    string                `json:"created_at"`
	Participants []participantResponse `json:"participants,omitempty"`
}

func toMeetingResponse(m meeting.Meeting, parts []meeting.Participant) meetingResponse {
	resp := meetingResponse{
		ID:           m.ID,
		HostID:       m.HostID,
		ScheduledAt:  m.ScheduledAt.Format(time.RFC3339),
		Status:       string(m.Status),
		ChargeStatus: string(m.ChargeStatus),
		HostNotes:    m.HostNotes,
		FinalizedBy:  m.FinalizedBy,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
	if m.Outcome != nil {
		v := string(*m.Outcome)
		resp.Outcome = &v
	}
	if m.Fault != nil {
		v := string(*m.Fault)
		resp.Fault = &v
	}
	if m.MatchedAt != nil {
		v := m.MatchedAt.Format(time.RFC3339)
		resp.MatchedAt = &v
	}
	if m.FinalizedAt != nil {
		v := m.FinalizedAt.Format(time.RFC3339)
		resp.FinalizedAt = &v
	}
	for _, p := range parts {
		resp.Participants = append(resp.Participants, participantResponse{
			UserID:      p.UserID,
			Role:        string(p.Role),
			DisplayName: p.DisplayName,
		})
	}
	return resp
}

type finalizeResponse struct {
	MeetingID        string `json:"meeting_id"`
	AlreadyFinalized bool   `json:"already_finalized"`
	ChargeStatus     string `json:"charge_status"`
	RefundIssued     bool   `json:"refund_issued"`
	Outcome          string `json:"outcome"`
	Fault            string `json:"fault"`
	FinalizedAt      string `json:"finalized_at"`
}

func toFinalizeResponse(res meeting.FinalizeResult, already bool) finalizeResponse {
	return finalizeResponse{
		MeetingID:        res.MeetingID,
		AlreadyFinalized: already,
		ChargeStatus:     string(res.ChargeStatus),
		RefundIssued:     res.RefundIssued,
		Outcome:          string(res.Outcome),
		Fault:            string(res.Fault),
		FinalizedAt:      res.FinalizedAt.Format(time.RFC3339),
	}
}

type messageResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
	ReadAt    *string         `json:"read_at,omitempty"`
}

func toMessageResponse(m notify.Message) messageResponse {
	resp := messageResponse{
		ID:        m.ID,
		Kind:      string(m.Kind),
		Title:     m.Title,
		Message:   m.Message,
		Payload:   json.RawMessage(m.Payload),
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
	if m.ReadAt != nil {
		v := m.ReadAt.Format(time.RFC3339)
		resp.ReadAt = &v
	}
	return resp
}
