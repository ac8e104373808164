package voice_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/handlers/voice"
)

// echoSession plays every appended chunk back as speech and closes after the
// first transcript.
type echoSession struct {
	events voice.Events
	audio  chan []byte

	mu     sync.Mutex
	closed bool
}

func (s *echoSession) AppendAudio(pcm []byte) error {
	s.audio <- pcm
	return nil
}

func (s *echoSession) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case pcm := <-s.audio:
			s.events.OnTranscript("user", "weather in Kyiv")
			s.events.OnAudio(pcm)
		}
	}
}

func (s *echoSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func newServer(t *testing.T, dial voice.DialFunc) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/api/voice", voice.NewHandler(dial, zerolog.Nop()).Stream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/voice"
}

func TestStream_Bridge(t *testing.T) {
	sess := &echoSession{audio: make(chan []byte, 1)}
	wsURL := newServer(t, func(_ context.Context, ev voice.Events) (voice.Session, error) {
		sess.events = ev
		return sess, nil
	})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3, 4}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var transcript map[string]string
	require.NoError(t, conn.ReadJSON(&transcript))
	assert.Equal(t, map[string]string{"type": "transcript", "role": "user", "text": "weather in Kyiv"}, transcript)

	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, mt)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestStream_DialFailure(t *testing.T) {
	wsURL := newServer(t, func(context.Context, voice.Events) (voice.Session, error) {
		return nil, errors.New("unauthorized")
	})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev map[string]string
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "error", ev["type"])
	assert.Equal(t, "unauthorized", ev["message"])
}

func TestStream_NotConfigured(t *testing.T) {
	wsURL := newServer(t, nil)
	httpURL := "http" + strings.TrimPrefix(wsURL, "ws")

	resp, err := http.Get(httpURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
