package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"gittogether/api/internal/middleware"
	"gittogether/api/internal/models"
	"gittogether/api/internal/response"
	"gittogether/api/internal/service"
)

// userView is the public projection of a user. Credentials and contact
// details never leave through it.
type userView struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Gender    string   `json:"gender,omitempty"`
	Age       *int     `json:"age,omitempty"`
	About     string   `json:"about,omitempty"`
	Skills    []string `json:"skills"`
	PhotoURL  string   `json:"photoUrl,omitempty"`
}

// profileView is what a user sees about themselves.
type profileView struct {
	userView
	Email         string    `json:"email"`
	DateOfBirth   string    `json:"dateOfBirth,omitempty"`
	MissingFields []string  `json:"missingFields"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (h HandlerSet) publicUser(ctx context.Context, u models.User) userView {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return userView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Gender:    string(u.Gender),
		Age:       u.Age,
		About:     u.About,
		Skills:    skills,
		PhotoURL:  h.photoURL(ctx, u),
	}
}

func (h HandlerSet) publicUsers(ctx context.Context, users []models.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, h.publicUser(ctx, u))
	}
	return out
}

func (h HandlerSet) profile(ctx context.Context, u models.User) profileView {
	v := profileView{
		userView:      h.publicUser(ctx, u),
		Email:         u.Email,
		MissingFields: u.MissingProfileFields(),
		CreatedAt:     u.CreatedAt,
	}
	if v.MissingFields == nil {
		v.MissingFields = []string{}
	}
	if u.DateOfBirth != nil {
		v.DateOfBirth = u.DateOfBirth.Format(dateLayout)
	}
	return v
}

func (h HandlerSet) photoURL(ctx context.Context, u models.User) string {
	if h.photos == nil || u.ProfileImage.Key == "" {
		return ""
	}
	url, err := h.photos.PresignGet(ctx, u.ProfileImage.Key)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", u.ID).Msg("presign profile photo")
		return ""
	}
	return url
}

// requireUser returns the user attached by middleware.Auth or writes a 401.
func (h HandlerSet) requireUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, h.log, service.ErrUnauthorized)
		return models.User{}, false
	}
	return user, true
}
