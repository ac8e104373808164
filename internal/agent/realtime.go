package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// RealtimeSession is a voice session with the hosted speech-to-speech
// runtime. Audio in and out is passed through untouched.
type RealtimeSession struct {
	assistant *Assistant
	opts      SessionOptions
	logger    zerolog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex
	calls   sync.WaitGroup

	OnAudioDelta func(pcm []byte)
	OnTranscript func(role, text string)
	OnError      func(err error)
}

// DialRealtime opens the session socket. The session is not configured until
// Configure is called.
func DialRealtime(
	ctx context.Context,
	baseURL, apiKey string,
	a *Assistant,
	opts SessionOptions,
	logger zerolog.Logger,
) (*RealtimeSession, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("realtime url: %w", err)
	}
	if opts.Model != "" {
		q := u.Query()
		q.Set("model", opts.Model)
		u.RawQuery = q.Encode()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to realtime API: %w", err)
	}

	return &RealtimeSession{
		assistant: a,
		opts:      opts,
		logger:    logger,
		conn:      conn,
	}, nil
}

type realtimeTool struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type turnDetectionConfig struct {
	Type              string   `json:"type"`
	Threshold         *float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   *int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs *int     `json:"silence_duration_ms,omitempty"`
}

type transcriptionConfig struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

type noiseReductionConfig struct {
	Type string `json:"type"`
}

type sessionConfig struct {
	Modalities              []string              `json:"modalities"`
	Instructions            string                `json:"instructions"`
	Voice                   string                `json:"voice,omitempty"`
	InputAudioFormat        string                `json:"input_audio_format"`
	OutputAudioFormat       string                `json:"output_audio_format"`
	InputAudioTranscription *transcriptionConfig  `json:"input_audio_transcription,omitempty"`
	InputNoiseReduction     *noiseReductionConfig `json:"input_audio_noise_reduction,omitempty"`
	TurnDetection           *turnDetectionConfig  `json:"turn_detection,omitempty"`
	Tools                   []realtimeTool        `json:"tools"`
	ToolChoice              string                `json:"tool_choice"`
}

func (s *RealtimeSession) sessionConfig() sessionConfig {
	cfg := sessionConfig{
		Modalities:        []string{"text", "audio"},
		Instructions:      s.assistant.Instructions,
		Voice:             s.opts.Voice,
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
		ToolChoice:        "auto",
	}

	if s.opts.TranscriptionModel != "" {
		cfg.InputAudioTranscription = &transcriptionConfig{
			Model:    s.opts.TranscriptionModel,
			Language: s.opts.Language,
		}
	}
	if s.opts.NoiseReduction != "" {
		cfg.InputNoiseReduction = &noiseReductionConfig{Type: s.opts.NoiseReduction}
	}
	if td := s.opts.TurnDetection; td.Type != "" {
		cfg.TurnDetection = &turnDetectionConfig{Type: td.Type}
		// semantic_vad does not accept the energy detector's tuning knobs
		if td.Type == "server_vad" {
			cfg.TurnDetection.Threshold = &td.Threshold
			cfg.TurnDetection.PrefixPaddingMs = &td.PrefixPaddingMs
			cfg.TurnDetection.SilenceDurationMs = &td.SilenceDurationMs
		}
	}

	for _, t := range s.assistant.Tools.List() {
		cfg.Tools = append(cfg.Tools, realtimeTool{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	return cfg
}

// Configure sends instructions, voice, turn detection and tools.
func (s *RealtimeSession) Configure() error {
	return s.send(map[string]any{
		"type":    "session.update",
		"session": s.sessionConfig(),
	})
}

// Greet asks the runtime to speak first.
func (s *RealtimeSession) Greet() error {
	return s.send(map[string]any{
		"type": "response.create",
		"response": map[string]any{
			"instructions": s.assistant.Greeting,
		},
	})
}

// AppendAudio forwards captured PCM16 audio to the runtime's input buffer.
func (s *RealtimeSession) AppendAudio(pcm []byte) error {
	return s.send(map[string]string{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm),
	})
}

type serverEvent struct {
	Type       string `json:"type"`
	CallID     string `json:"call_id"`
	Name       string `json:"name"`
	Arguments  string `json:"arguments"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Run reads server events until ctx is done or the socket closes. Tool calls
// are answered on their own goroutines so the read loop keeps draining audio.
func (s *RealtimeSession) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.calls.Wait()
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("realtime read: %w", err)
		}

		var ev serverEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed realtime event")
			continue
		}
		s.handle(ctx, ev)
	}
}

func (s *RealtimeSession) handle(ctx context.Context, ev serverEvent) {
	switch ev.Type {
	case "session.created", "session.updated":
		s.logger.Info().Str("event", ev.Type).Msg("realtime session ready")
	case "response.function_call_arguments.done":
		s.calls.Add(1)
		go func() {
			defer s.calls.Done()
			s.answerToolCall(ctx, ev)
		}()
	case "response.audio.delta":
		if s.OnAudioDelta == nil {
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			s.logger.Warn().Err(err).Msg("bad audio delta")
			return
		}
		s.OnAudioDelta(pcm)
	case "response.audio_transcript.done":
		if s.OnTranscript != nil {
			s.OnTranscript("assistant", ev.Transcript)
		}
	case "conversation.item.input_audio_transcription.completed":
		if s.OnTranscript != nil {
			s.OnTranscript("user", ev.Transcript)
		}
	case "error":
		msg := "unknown realtime error"
		if ev.Error != nil {
			msg = ev.Error.Message
		}
		s.logger.Error().Str("message", msg).Msg("realtime runtime reported an error")
		if s.OnError != nil {
			s.OnError(errors.New(msg))
		}
	}
}

func (s *RealtimeSession) answerToolCall(ctx context.Context, ev serverEvent) {
	s.logger.Info().
		Str("tool", ev.Name).
		Str("call_id", ev.CallID).
		Msg("model called tool")

	output := s.assistant.callTool(ctx, ev.Name, ev.Arguments)

	err := s.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]string{
			"type":    "function_call_output",
			"call_id": ev.CallID,
			"output":  output,
		},
	})
	if err == nil {
		err = s.send(map[string]string{"type": "response.create"})
	}
	if err != nil {
		s.logger.Error().Err(err).Str("call_id", ev.CallID).Msg("failed to return tool output")
		if s.OnError != nil {
			s.OnError(err)
		}
	}
}

func (s *RealtimeSession) send(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// Close ends the session with a normal closure frame.
func (s *RealtimeSession) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	s.writeMu.Unlock()
	return s.conn.Close()
}
