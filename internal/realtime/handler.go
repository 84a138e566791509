package realtime

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/config"
	"gittogether/api/internal/models"
	"gittogether/api/internal/response"
	"gittogether/api/internal/security"
)

// Authenticator resolves the session cookie presented at handshake.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

type Handler struct {
	auth           Authenticator
	gw             *Gateway
	cfg            config.RealtimeConfig
	originPatterns []string
	log            zerolog.Logger
}

// NewHandler builds the upgrade handler. When cfg.AllowedOrigins is empty the
// hosts of corsOrigins are accepted instead.
func NewHandler(auth Authenticator, gw *Gateway, cfg config.RealtimeConfig, corsOrigins []string, log zerolog.Logger) *Handler {
	patterns := cfg.AllowedOrigins
	if len(patterns) == 0 {
		patterns = originHosts(corsOrigins)
	}
	return &Handler{
		auth:           auth,
		gw:             gw,
		cfg:            withDefaults(cfg),
		originPatterns: patterns,
		log:            log,
	}
}

// Serve authenticates the upgrade request once and then runs the connection
// until it closes. A refused handshake gets a 401 envelope whose message is
// the reason code.
func (h *Handler) Serve(c *gin.Context) {
	token, _ := c.Cookie(security.SessionCookie)

	user, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		ae := apperr.From(err)
		if ae.Kind != apperr.KindAuthentication {
			response.Error(c, h.log, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Body{Success: false, Message: ae.Code})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		// Accept has already written the error response.
		h.log.Debug().Err(err).Str("user_id", user.ID).Msg("websocket upgrade failed")
		return
	}

	client := newClient(c.Request.Context(), conn, user.Identity(), h.cfg, h.log)
	client.Run(h.gw)
}

func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

func withDefaults(cfg config.RealtimeConfig) config.RealtimeConfig {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.EventsPerSec <= 0 {
		cfg.EventsPerSec = 10
	}
	if cfg.EventBurst <= 0 {
		cfg.EventBurst = 20
	}
	return cfg
}
