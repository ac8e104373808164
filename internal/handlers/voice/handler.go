package voice

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 10 * time.Second

// Session is the upstream voice session a client is bridged to.
type Session interface {
	AppendAudio(pcm []byte) error
	Run(ctx context.Context) error
	Close() error
}

// Events receives what the runtime produces for the connected client.
type Events struct {
	OnAudio      func(pcm []byte)
	OnTranscript func(role, text string)
	OnError      func(err error)
}

// DialFunc opens, configures and greets a new upstream session.
type DialFunc func(ctx context.Context, events Events) (Session, error)

// Handler bridges a client websocket to the hosted voice runtime. Binary
// frames carry PCM16 audio both ways; text frames carry transcripts and errors.
type Handler struct {
	dial     DialFunc
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHandler(dial DialFunc, logger zerolog.Logger) *Handler {
	return &Handler{
		dial: dial,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: logger,
	}
}

type clientEvent struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

type clientConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *clientConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *clientConn) writeJSON(ev clientEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(ev)
}

// Stream answers GET /api/voice.
func (h *Handler) Stream(c *gin.Context) {
	if h.dial == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice runtime is not configured"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("voice upgrade failed")
		return
	}
	client := &clientConn{conn: conn}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sess, err := h.dial(ctx, Events{
		OnAudio: func(pcm []byte) {
			if err := client.write(websocket.BinaryMessage, pcm); err != nil {
				h.logger.Debug().Err(err).Msg("dropping audio for client")
			}
		},
		OnTranscript: func(role, text string) {
			_ = client.writeJSON(clientEvent{Type: "transcript", Role: role, Text: text})
		},
		OnError: func(err error) {
			_ = client.writeJSON(clientEvent{Type: "error", Message: err.Error()})
		},
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to open voice session")
		_ = client.writeJSON(clientEvent{Type: "error", Message: err.Error()})
		return
	}
	defer func() { _ = sess.Close() }()

	h.logger.Info().Str("remote", c.Request.RemoteAddr).Msg("voice client connected")

	go func() {
		if err := sess.Run(ctx); err != nil {
			h.logger.Error().Err(err).Msg("voice session ended with error")
		}
		cancel()
		_ = conn.Close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			h.logger.Info().Msg("voice client disconnected")
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		if err := sess.AppendAudio(data); err != nil {
			h.logger.Error().Err(err).Msg("failed to forward audio")
			return
		}
	}
}
