package api

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dateflow/auth"
	"dateflow/match"
	"dateflow/meeting"
	"dateflow/notify"
	"dateflow/response"
	"dateflow/review"
)

// AuthService is the slice of auth the HTTP layer consumes.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

// MeetingService covers pre-resolution meeting lifecycle operations.
type MeetingService interface {
	Pair(ctx context.Context, params meeting.PairParams) (meeting.Meeting, error)
	Get(ctx context.Context, meetingID, actorID string, role auth.Role) (meeting.MeetingView, error)
	Transition(ctx context.Context, meetingID, actorID string, role auth.Role, next meeting.Status) (meeting.Meeting, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]meeting.Meeting, error)
}

// Finalizer is the resolution engine entry point.
type Finalizer interface {
	Finalize(ctx context.Context, params meeting.FinalizeParams) (meeting.FinalizeResult, error)
}

// ResponseService accepts post-meeting decisions.
type ResponseService interface {
	Submit(ctx context.Context, params response.SubmitParams) (response.Result, error)
}

// MatchService exposes match reads.
type MatchService interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]match.Match, error)
}

// InboxService exposes the notification inbox.
type InboxService interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]notify.Message, error)
	MarkRead(ctx context.Context, userID, messageID string) (notify.Message, error)
}

// ReviewService exposes the moderator review queue.
type ReviewService interface {
	List(ctx context.Context, role auth.Role, status review.Status) ([]review.Case, error)
	Resolve(ctx context.Context, role auth.Role, caseID, resolvedBy string) (review.Case, error)
}

// Server wires the HTTP surface to the domain services.
type Server struct {
	authService     AuthService
	meetingService  MeetingService
	finalizer       Finalizer
	responseService ResponseService
	matchService    MatchService
	inbox           InboxService
	reviewService   ReviewService
	corsOrigins     []string
	log             zerolog.Logger
}

type ServerConfig struct {
	Auth        AuthService
	Meetings    MeetingService
	Finalizer   Finalizer
	Responses   ResponseService
	Matches     MatchService
	Inbox       InboxService
	Reviews     ReviewService
	CORSOrigins []string
	Log         zerolog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		authService:     cfg.Auth,
		meetingService:  cfg.Meetings,
		finalizer:       cfg.Finalizer,
		responseService: cfg.Responses,
		matchService:    cfg.Matches,
		inbox:           cfg.Inbox,
		reviewService:   cfg.Reviews,
		corsOrigins:     cfg.CORSOrigins,
		log:             cfg.Log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	corsCfg := cors.DefaultConfig()
	if len(s.corsOrigins) > 0 {
		corsCfg.AllowOrigins = s.corsOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", s.handleRegister)
	v1.POST("/auth/login", s.handleLogin)

	authed := v1.Group("")
	authed.Use(s.requireAuth())
	authed.POST("/meetings", s.handleCreateMeeting)
	authed.GET("/meetings", s.handleListMeetings)
	authed.GET("/meetings/:id", s.handleGetMeeting)
	authed.POST("/meetings/:id/status", s.handleTransition)
	authed.POST("/meetings/:id/finalize", s.handleFinalize)
	authed.POST("/meetings/:id/responses", s.handleSubmitResponse)
	authed.GET("/matches", s.handleListMatches)
	authed.GET("/notifications", s.handleListNotifications)
	authed.POST("/notifications/:id/read", s.handleMarkNotificationRead)
	authed.GET("/reviews", s.handleListReviews)
	authed.POST("/reviews/:id/resolve", s.handleResolveReview)

	return router
}

// Run starts the HTTP listener.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}
