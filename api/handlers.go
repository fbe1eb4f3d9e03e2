package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dateflow/auth"
	"dateflow/meeting"
	"dateflow/response"
	"dateflow/review"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := s.authService.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(*user))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := s.authService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"user":  toUserResponse(result.User),
	})
}

type createMeetingRequest struct {
	HostID      string     `json:"host_id" binding:"required"`
	RequesterID string     `json:"requester_id" binding:"required"`
	AccepterID  string     `json:"accepter_id" binding:"required"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (s *Server) handleCreateMeeting(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	_, role := actor(c)
	m, err := s.meetingService.Pair(c.Request.Context(), meeting.PairParams{
		ActorRole:   role,
		HostID:      req.HostID,
		RequesterID: req.RequesterID,
		AccepterID:  req.AccepterID,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMeetingResponse(m, nil))
}

func (s *Server) handleGetMeeting(c *gin.Context) {
	actorID, role := actor(c)
	view, err := s.meetingService.Get(c.Request.Context(), c.Param("id"), actorID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMeetingResponse(view.Meeting, view.Participants))
}

func (s *Server) handleListMeetings(c *gin.Context) {
	actorID, _ := actor(c)
	meetings, err := s.meetingService.ListForUser(c.Request.Context(), actorID, intQuery(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]meetingResponse, 0, len(meetings))
	for _, m := range meetings {
		items = append(items, toMeetingResponse(m, nil))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleTransition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	actorID, role := actor(c)
	m, err := s.meetingService.Transition(c.Request.Context(), c.Param("id"), actorID, role, meeting.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMeetingResponse(m, nil))
}

type finalizeRequest struct {
	Outcome        string `json:"outcome" binding:"required"`
	Fault          string `json:"fault" binding:"required"`
	ChargeDecision string `json:"charge_decision" binding:"required"`
	Notes          string `json:"notes"`
}

func (s *Server) handleFinalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	actorID, role := actor(c)
	result, err := s.finalizer.Finalize(c.Request.Context(), meeting.FinalizeParams{
		MeetingID: c.Param("id"),
		ActorID:   actorID,
		ActorRole: role,
		Outcome:   meeting.Outcome(req.Outcome),
		Fault:     meeting.Fault(req.Fault),
		Decision:  meeting.ChargeDecision(req.ChargeDecision),
		Notes:     req.Notes,
	})
	// A lost finalize race is success-adjacent: the settled state is
	// returned with already_finalized set.
	if errors.Is(err, meeting.ErrAlreadyFinalized) {
		c.JSON(http.StatusOK, toFinalizeResponse(result, true))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFinalizeResponse(result, false))
}

type submitResponseRequest struct {
	Response    string `json:"response" binding:"required"`
	PartnerName string `json:"partner_name"`
}

func (s *Server) handleSubmitResponse(c *gin.Context) {
	var req submitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	actorID, _ := actor(c)
	result, err := s.responseService.Submit(c.Request.Context(), response.SubmitParams{
		MeetingID:   c.Param("id"),
		UserID:      actorID,
		Decision:    response.Decision(req.Response),
		PartnerName: req.PartnerName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListMatches(c *gin.Context) {
	actorID, _ := actor(c)
	matches, err := s.matchService.ListForUser(c.Request.Context(), actorID, intQuery(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": matches})
}

func (s *Server) handleListNotifications(c *gin.Context) {
	actorID, _ := actor(c)
	messages, err := s.inbox.ListForUser(c.Request.Context(), actorID, intQuery(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	actorID, _ := actor(c)
	msg, err := s.inbox.MarkRead(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(msg))
}

func (s *Server) handleListReviews(c *gin.Context) {
	_, role := actor(c)
	cases, err := s.reviewService.List(c.Request.Context(), role, review.Status(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cases})
}

func (s *Server) handleResolveReview(c *gin.Context) {
	actorID, role := actor(c)
	resolved, err := s.reviewService.Resolve(c.Request.Context(), role, c.Param("id"), actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

func intQuery(c *gin.Context, name string) int {
	var n int
	for _, r := range c.Query(name) {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 1000 {
			return 1000
		}
	}
	return n
}
