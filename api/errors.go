package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dateflow/auth"
	"dateflow/match"
	"dateflow/meeting"
	"dateflow/notify"
	"dateflow/review"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// writeError maps domain errors onto the wire contract: a machine-readable
// kind plus a human-readable message. Presentation copy is the UI's job.
func writeError(c *gin.Context, err error) {
	var invalid *meeting.InvalidArgumentError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, errorBody{errorDetail{
			Kind: "invalid_argument", Message: invalid.Error(), Field: invalid.Field,
		}})
	case errors.Is(err, meeting.ErrInvalidState), errors.Is(err, review.ErrBadStatus):
		c.JSON(http.StatusBadRequest, errorBody{errorDetail{
			Kind: "invalid_state", Message: err.Error(),
		}})
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, errorBody{errorDetail{
			Kind: "invalid_argument", Message: err.Error(), Field: "password",
		}})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorBody{errorDetail{
			Kind: "invalid_credentials", Message: err.Error(),
		}})
	case errors.Is(err, meeting.ErrForbidden):
		c.JSON(http.StatusForbidden, errorBody{errorDetail{
			Kind: "forbidden", Message: err.Error(),
		}})
	case errors.Is(err, meeting.ErrNotFound),
		errors.Is(err, match.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, notify.ErrMessageNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, errorBody{errorDetail{
			Kind: "not_found", Message: err.Error(),
		}})
	case errors.Is(err, auth.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, errorBody{errorDetail{
			Kind: "duplicate_email", Message: err.Error(),
		}})
	case errors.Is(err, meeting.ErrInconsistent):
		c.JSON(http.StatusInternalServerError, errorBody{errorDetail{
			Kind: "inconsistent", Message: "internal data integrity error",
		}})
	default:
		c.JSON(http.StatusInternalServerError, errorBody{errorDetail{
			Kind: "internal", Message: "internal server error",
		}})
	}
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{errorDetail{
		Kind: "invalid_argument", Message: err.Error(),
	}})
}
