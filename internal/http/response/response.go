package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Reasons: apperrors.ReasonsOf(err),
		},
	})
}

// RespondAppError maps a coded error to its HTTP status.
func RespondAppError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	if code == "" {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondError(c, StatusFor(code), string(code), err)
}

func StatusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.CodeSessionBlocked:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeIntegrityViolation:
		return http.StatusUnprocessableEntity
	case apperrors.CodeGenerationFailed, apperrors.CodeNoStructuredPayload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
