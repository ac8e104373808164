package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultMaxToolRounds = 5
	defaultReplyTimeout  = 30 * time.Second
)

var (
	ErrNoChoices         = errors.New("model returned no choices")
	ErrTooManyToolRounds = errors.New("model kept calling tools")
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type ChatOptions struct {
	Model         string
	MaxToolRounds int
	ReplyTimeout  time.Duration
}

// ChatSession is a text dialogue with the model. Replies that need weather
// go through the tool loop: the model asks, the registry answers, the model
// phrases the final reply.
type ChatSession struct {
	ID string

	assistant *Assistant
	llm       chatCompleter
	opts      ChatOptions
	logger    zerolog.Logger

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

func NewChatSession(id string, a *Assistant, llm chatCompleter, opts ChatOptions, logger zerolog.Logger) *ChatSession {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultMaxToolRounds
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = defaultReplyTimeout
	}
	return &ChatSession{
		ID:        id,
		assistant: a,
		llm:       llm,
		opts:      opts,
		logger:    logger.With().Str("session_id", id).Logger(),
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.Instructions},
		},
	}
}

// Greet asks the model for an opening line.
func (s *ChatSession) Greet(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompt := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s.assistant.Greeting}
	return s.complete(ctx, []openai.ChatCompletionMessage{prompt}, false)
}

// Reply adds the user's words to the dialogue and returns the answer.
func (s *ChatSession) Reply(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	return s.complete(ctx, []openai.ChatCompletionMessage{msg}, true)
}

// History returns a copy of the dialogue so far.
func (s *ChatSession) History() []openai.ChatCompletionMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]openai.ChatCompletionMessage, len(s.history))
	copy(out, s.history)
	return out
}

// complete runs the tool loop. pending messages join the history only when
// the turn finishes, unless keepPending is false (one-off instructions).
func (s *ChatSession) complete(
	ctx context.Context,
	pending []openai.ChatCompletionMessage,
	keepPending bool,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReplyTimeout)
	defer cancel()

	turn := append([]openai.ChatCompletionMessage(nil), pending...)
	toolDefs := s.assistant.chatTools()

	for round := 0; round <= s.opts.MaxToolRounds; round++ {
		req := openai.ChatCompletionRequest{
			Model:    s.opts.Model,
			Messages: append(append([]openai.ChatCompletionMessage(nil), s.history...), turn...),
		}
		if len(toolDefs) > 0 {
			req.Tools = toolDefs
		}

		resp, err := s.llm.CreateChatCompletion(ctx, req)
		if err != nil {
			s.logger.Error().Err(err).Int("round", round).Msg("chat completion failed")
			return "", fmt.Errorf("openai completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrNoChoices
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if !keepPending {
				turn = turn[len(pending):]
			}
			s.history = append(s.history, turn...)
			s.history = append(s.history, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: reply,
			})
			return reply, nil
		}

		turn = append(turn, msg)
		for _, call := range msg.ToolCalls {
			s.logger.Info().
				Ctx(ctx).
				Str("tool", call.Function.Name).
				Str("call_id", call.ID).
				Msg("model called tool")

			turn = append(turn, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    s.assistant.callTool(ctx, call.Function.Name, call.Function.Arguments),
				ToolCallID: call.ID,
			})
		}
	}

	s.logger.Warn().Int("max_rounds", s.opts.MaxToolRounds).Msg("tool round limit reached")
	return "", ErrTooManyToolRounds
}
