package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
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
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// StatusForCode maps workflow error codes onto HTTP statuses. Budget and
// deadline refusals are 409s: the request was well formed, the document's
// current state refused it.
func StatusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeUnauthorized:
		return http.StatusForbidden
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict,
		domainagg.CodePreconditionFailed,
		domainagg.CodeInvariantViolation,
		domainagg.CodeBudgetExceeded,
		domainagg.CodeDeadlineExceeded,
		domainagg.CodeSubmissionsClosed:
		return http.StatusConflict
	case domainagg.CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWorkflowError writes a typed workflow failure using its code's
// canonical status.
func RespondWorkflowError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	RespondError(c, StatusForCode(code), string(code), err)
}
