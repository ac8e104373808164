package agent_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/agent"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/tools"
)

type clientEvent struct {
	Type    string          `json:"type"`
	Session json.RawMessage `json:"session"`
	Item    struct {
		Type   string `json:"type"`
		CallID string `json:"call_id"`
		Output string `json:"output"`
	} `json:"item"`
	Response struct {
		Instructions string `json:"instructions"`
	} `json:"response"`
}

// fakeRuntime plays the hosted side: it records client events and runs script
// once the session is configured.
func fakeRuntime(t *testing.T, script func(conn *websocket.Conn)) (*httptest.Server, <-chan clientEvent) {
	t.Helper()
	events := make(chan clientEvent, 16)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer rt-key", r.Header.Get("Authorization"))
		assert.Equal(t, "realtime=v1", r.Header.Get("OpenAI-Beta"))
		assert.Equal(t, "test-realtime", r.URL.Query().Get("model"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		var first clientEvent
		if !assert.NoError(t, conn.ReadJSON(&first)) {
			return
		}
		events <- first

		go script(conn)

		for {
			var ev clientEvent
			if err := conn.ReadJSON(&ev); err != nil {
				close(events)
				return
			}
			events <- ev
		}
	}))
	t.Cleanup(srv.Close)
	return srv, events
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextEvent(t *testing.T, events <-chan clientEvent) clientEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "runtime connection closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for client event")
	}
	return clientEvent{}
}

func testOptions() agent.SessionOptions {
	return agent.SessionOptions{
		Model:              "test-realtime",
		Voice:              "alloy",
		TranscriptionModel: "whisper-1",
		TurnDetection:      agent.TurnDetection{Type: "server_vad", Threshold: 0.5, PrefixPaddingMs: 300, SilenceDurationMs: 500},
		NoiseReduction:     "near_field",
	}
}

func TestRealtimeSession_AnswersToolCalls(t *testing.T) {
	srv, events := fakeRuntime(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(map[string]string{
			"type":      "response.function_call_arguments.done",
			"call_id":   "call_42",
			"name":      tools.WeatherToolName,
			"arguments": `{"location":"Kyiv"}`,
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := agent.DialRealtime(ctx, wsURL(srv), "rt-key", newAssistant(t), testOptions(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Configure())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	update := nextEvent(t, events)
	require.Equal(t, "session.update", update.Type)

	var session struct {
		Instructions  string `json:"instructions"`
		Voice         string `json:"voice"`
		TurnDetection struct {
			Type string `json:"type"`
		} `json:"turn_detection"`
		NoiseReduction struct {
			Type string `json:"type"`
		} `json:"input_audio_noise_reduction"`
		Tools []struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(update.Session, &session))
	assert.Equal(t, agent.DefaultInstructions, session.Instructions)
	assert.Equal(t, "alloy", session.Voice)
	assert.Equal(t, "server_vad", session.TurnDetection.Type)
	assert.Equal(t, "near_field", session.NoiseReduction.Type)
	require.Len(t, session.Tools, 1)
	assert.Equal(t, tools.WeatherToolName, session.Tools[0].Name)
	assert.Equal(t, "object", session.Tools[0].Parameters["type"])

	output := nextEvent(t, events)
	assert.Equal(t, "conversation.item.create", output.Type)
	assert.Equal(t, "function_call_output", output.Item.Type)
	assert.Equal(t, "call_42", output.Item.CallID)
	assert.Equal(t, "It is sunny in Kyiv.", output.Item.Output)

	assert.Equal(t, "response.create", nextEvent(t, events).Type)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRealtimeSession_GreetAudioAndTranscripts(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}

	srv, events := fakeRuntime(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(map[string]string{
			"type":  "response.audio.delta",
			"delta": base64.StdEncoding.EncodeToString(pcm),
		})
		_ = conn.WriteJSON(map[string]string{
			"type":       "response.audio_transcript.done",
			"transcript": "Hello there!",
		})
		_ = conn.WriteJSON(map[string]any{
			"type":  "error",
			"error": map[string]string{"message": "rate limit"},
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := agent.DialRealtime(ctx, wsURL(srv), "rt-key", newAssistant(t), testOptions(), zerolog.Nop())
	require.NoError(t, err)

	audio := make(chan []byte, 1)
	transcripts := make(chan string, 1)
	errs := make(chan error, 1)
	s.OnAudioDelta = func(b []byte) { audio <- b }
	s.OnTranscript = func(role, text string) { transcripts <- role + ": " + text }
	s.OnError = func(err error) { errs <- err }

	require.NoError(t, s.Configure())
	go func() { _ = s.Run(ctx) }()

	require.Equal(t, "session.update", nextEvent(t, events).Type)

	require.NoError(t, s.Greet())
	greet := nextEvent(t, events)
	assert.Equal(t, "response.create", greet.Type)
	assert.Equal(t, agent.DefaultGreeting, greet.Response.Instructions)

	require.NoError(t, s.AppendAudio(pcm))
	assert.Equal(t, "input_audio_buffer.append", nextEvent(t, events).Type)

	select {
	case got := <-audio:
		assert.Equal(t, pcm, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no audio delta")
	}
	select {
	case got := <-transcripts:
		assert.Equal(t, "assistant: Hello there!", got)
	case <-time.After(3 * time.Second):
		t.Fatal("no transcript")
	}
	select {
	case got := <-errs:
		assert.EqualError(t, got, "rate limit")
	case <-time.After(3 * time.Second):
		t.Fatal("no error callback")
	}

	require.NoError(t, s.Close())
}
