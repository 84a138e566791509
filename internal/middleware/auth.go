package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gittogether/api/internal/models"
	"gittogether/api/internal/response"
	"gittogether/api/internal/security"
)

const currentUserKey = "current_user"

// Authenticator resolves a session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// Auth reads the session cookie and attaches the user to the gin context.
func Auth(auth Authenticator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(security.SessionCookie)

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, log, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
