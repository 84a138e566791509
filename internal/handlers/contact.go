package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/queue"
	"gittogether/api/internal/response"
	"gittogether/api/internal/validation"
)

type contactRequest struct {
	Subject string `json:"subject" binding:"required,notblank,min=10,max=200"`
	Message string `json:"message" binding:"required,notblank,min=10,max=300"`
}

var errTasksUnavailable = errors.New("task queue not configured")

// ContactUs queues the message for the worker, which relays it to the site
// admin by email.
func (h HandlerSet) ContactUs(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.log, validation.ToAppError(err))
		return
	}
	if h.tasks == nil {
		response.Error(c, h.log, apperr.Internal(errTasksUnavailable))
		return
	}

	id, err := h.tasks.Enqueue(c.Request.Context(), queue.TaskContactUs, queue.ContactUs{
		UserID:    user.ID,
		FromName:  strings.TrimSpace(user.FirstName + " " + user.LastName),
		FromEmail: user.Email,
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
	})
	if err != nil {
		response.Error(c, h.log, apperr.Internal(err))
		return
	}

	h.log.Info().Str("user_id", user.ID).Str("task_id", id).Msg("contact message queued")
	response.OK(c, http.StatusAccepted, "Thanks for the message we will contact you.", nil)
}
