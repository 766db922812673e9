package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
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

// RespondAPIError maps a service error onto the envelope. Errors without an
// *apierr.Error in their chain are reported as 500 with code fallback.
func RespondAPIError(c *gin.Context, err error, fallback string) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err, fallback), ae)
		return
	}
	RespondError(c, http.StatusInternalServerError, fallback, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
