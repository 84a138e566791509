package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"gittogether/api/internal/config"
	"gittogether/api/internal/ids"
	"gittogether/api/internal/metrics"
	"gittogether/api/internal/models"
)

// maxFrameBytes fits a maximum-length message whose every rune arrives as an
// escaped surrogate pair (12 bytes), plus the frame envelope.
const maxFrameBytes = models.MaxMessageLength*12 + 4<<10

// Client is one websocket connection. Run owns the read side; a single writer
// goroutine drains the send buffer.
type Client struct {
	id       string
	identity models.Identity
	conn     *websocket.Conn
	send     chan Frame
	limiter  *rate.Limiter
	cfg      config.RealtimeConfig
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(parent context.Context, conn *websocket.Conn, identity models.Identity, cfg config.RealtimeConfig, log zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(parent)
	id := ids.New()
	return &Client{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan Frame, cfg.SendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(cfg.EventsPerSec), cfg.EventBurst),
		cfg:      cfg,
		log:      log.With().Str("conn_id", id).Str("user_id", identity.ID).Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Identity() models.Identity { return c.identity }

// Send never blocks. The channel is never closed, so a send racing with
// shutdown is safe and simply goes unread.
func (c *Client) Send(frame Frame) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.RealtimeDroppedFrames.Inc()
		c.log.Warn().Str("event", frame.Event).Msg("send buffer full, frame dropped")
		return false
	}
}

// Run serves the connection until the peer goes away, a write fails or the
// parent context ends.
func (c *Client) Run(gw *Gateway) {
	metrics.RealtimeConnections.Inc()
	defer metrics.RealtimeConnections.Dec()

	c.conn.SetReadLimit(maxFrameBytes)

	go c.writeLoop()
	go c.pingLoop()

	defer func() {
		gw.Hub().LeaveAll(c)
		c.cancel()
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.log.Info().Msg("realtime connected")
	err := c.readLoop(gw)
	c.log.Info().Err(err).Msg("realtime disconnected")
}

func (c *Client) readLoop(gw *Gateway) error {
	for {
		typ, data, err := c.conn.Read(c.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if !c.limiter.Allow() {
			gw.RejectRateLimited(c)
			continue
		}
		if typ != websocket.MessageText {
			data = nil
		}
		gw.Dispatch(c.ctx, c, data)
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case frame := <-c.send:
			writeCtx, cancel := context.WithTimeout(c.ctx, c.cfg.WriteTimeout)
			err := wsjson.Write(writeCtx, c.conn, frame)
			cancel()
			if err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				c.cancel()
				return
			}
		}
	}
}

func (c *Client) pingLoop() {
	if c.cfg.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, c.cfg.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.log.Debug().Err(err).Msg("ping failed")
				c.cancel()
				return
			}
		}
	}
}
