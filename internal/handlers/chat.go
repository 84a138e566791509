package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gittogether/api/internal/models"
	"gittogether/api/internal/response"
)

type chatMessageView struct {
	ID           string    `json:"id"`
	SenderUserID string    `json:"senderUserId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}

type chatView struct {
	ChatID       string            `json:"chatId"`
	Participants []string          `json:"participants"`
	Messages     []chatMessageView `json:"messages"`
}

// Chat opens (or creates) the direct chat with :targetUserId and returns its
// latest messages. ?limit caps the history.
func (h HandlerSet) Chat(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	history, err := h.chats.OpenDirectChat(c.Request.Context(), user.ID, c.Param("targetUserId"), limit)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, http.StatusOK, "Your Chats", newChatView(history.Chat, history.Messages))
}

func newChatView(chat models.Chat, messages []models.MessageView) chatView {
	v := chatView{
		ChatID:       chat.ID,
		Participants: chat.Participants,
		Messages:     make([]chatMessageView, 0, len(messages)),
	}
	for _, m := range messages {
		v.Messages = append(v.Messages, chatMessageView{
			ID:           m.ID,
			SenderUserID: m.SenderID,
			FirstName:    m.SenderFirstName,
			LastName:     m.SenderLastName,
			Text:         m.Text,
			CreatedAt:    m.CreatedAt,
		})
	}
	return v
}
