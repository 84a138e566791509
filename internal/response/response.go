// Package response writes the JSON envelope shared by every HTTP endpoint:
// {success, message, data?, errors?}.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gittogether/api/internal/apperr"
)

type Body struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Body{Success: true, Message: message, Data: data})
}

// Error writes err as a failed envelope and aborts the chain. Internal errors
// are logged with their cause; the client only sees the generic message.
func Error(c *gin.Context, log zerolog.Logger, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindInternal {
		log.Error().
			Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.Writer.Header().Get("X-Request-Id")).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(ae.Kind), Body{
		Success: false,
		Message: ae.Message,
		Errors:  ae.Fields,
	})
}
