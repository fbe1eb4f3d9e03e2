package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dateflow/auth"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// requestLog tags every request with an id and logs its completion.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)

		start := time.Now()
		c.Next()

		s.log.Info().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// requireAuth validates the Bearer token and stores the actor's identity on
// the request context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{errorDetail{
				Kind: "unauthenticated", Message: "missing bearer token",
			}})
			return
		}

		userID, role, err := s.authService.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{errorDetail{
				Kind: "unauthenticated", Message: "invalid token",
			}})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func actor(c *gin.Context) (string, auth.Role) {
	userID := c.GetString(ctxUserID)
	role, _ := c.MustGet(ctxRole).(auth.Role)
	return userID, role
}
