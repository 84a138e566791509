package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/ids"
	"gittogether/api/internal/models"
	"gittogether/api/internal/response"
)

type requestView struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"fromUserId"`
	ToUserID   string    `json:"toUserId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newRequestView(r models.ConnectionRequest) requestView {
	return requestView{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type pendingView struct {
	RequestID string    `json:"requestId"`
	FromUser  userView  `json:"fromUser"`
	CreatedAt time.Time `json:"createdAt"`
}

var sendMessages = map[models.RequestStatus]string{
	models.RequestStatusInterested: "Connection request sent",
	models.RequestStatusIgnored:    "User ignored",
}

var reviewMessages = map[models.RequestStatus]string{
	models.RequestStatusAccepted: "Connection request accepted",
	models.RequestStatusRejected: "Connection request rejected",
}

func (h HandlerSet) SendRequest(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	toUserID := c.Param("toUserId")
	if !ids.Valid(toUserID) {
		response.Error(c, h.log, invalidParam("toUserId"))
		return
	}
	status := models.RequestStatus(c.Param("status"))

	req, err := h.requests.Send(c.Request.Context(), user, toUserID, status)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, http.StatusCreated, sendMessages[status], newRequestView(req))
}

func (h HandlerSet) ReviewRequest(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	status := models.RequestStatus(c.Param("status"))

	req, err := h.requests.Review(c.Request.Context(), c.Param("requestId"), user.ID, status)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, http.StatusOK, reviewMessages[status], newRequestView(req))
}

func (h HandlerSet) ReceivedRequests(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	pending, err := h.requests.ListPendingReceived(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	data := make([]pendingView, 0, len(pending))
	for _, p := range pending {
		data = append(data, pendingView{
			RequestID: p.RequestID,
			FromUser:  h.publicUser(c.Request.Context(), p.From),
			CreatedAt: p.CreatedAt,
		})
	}
	message := "Your requests are"
	if len(data) == 0 {
		message = "No requests for you"
	}
	response.OK(c, http.StatusOK, message, data)
}

func (h HandlerSet) Connections(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	users, err := h.requests.ListConnections(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	message := "Your connections"
	if len(users) == 0 {
		message = "No connections yet"
	}
	response.OK(c, http.StatusOK, message, h.publicUsers(c.Request.Context(), users))
}

func (h HandlerSet) Feed(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	// Unparseable values fall back to the defaults.
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	users, err := h.requests.Feed(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, http.StatusOK, "Feed", h.publicUsers(c.Request.Context(), users))
}

func invalidParam(name string) error {
	return apperr.Validation(apperr.CodeValidation, "Validation Error",
		apperr.FieldError{Field: name, Message: "must be a valid id"})
}
