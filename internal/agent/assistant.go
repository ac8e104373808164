// Package agent connects the weather tool to the hosted voice and language
// model runtime. Speech recognition, turn detection and synthesis are done by
// the runtime; this package only configures sessions and answers tool calls.
package agent

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/tools"
)

const (
	DefaultInstructions = "You are a helpful and knowledgeable voice AI assistant specializing in providing " +
		"current weather information. You speak clearly and naturally. Ask for the location if the user " +
		"hasn't mentioned it. Use the weather tool to fetch real-time weather for any city. " +
		"When providing weather, be concise and directly answer the user's query."

	DefaultGreeting = "Greet the user and offer weather assistance."
)

type toolRegistry interface {
	List() []tools.Tool
	Invoke(ctx context.Context, name string, args json.RawMessage) (string, error)
}

// Assistant is the declaration handed to a session: what the model is told
// and which tools it may call.
type Assistant struct {
	Instructions string
	Greeting     string
	Tools        toolRegistry
}

func NewAssistant(reg toolRegistry) *Assistant {
	return &Assistant{
		Instructions: DefaultInstructions,
		Greeting:     DefaultGreeting,
		Tools:        reg,
	}
}

// callTool runs a tool and turns a failure into text the model can read.
func (a *Assistant) callTool(ctx context.Context, name, args string) string {
	out, err := a.Tools.Invoke(ctx, name, json.RawMessage(args))
	if err != nil {
		return "error: " + err.Error()
	}
	return out
}

func (a *Assistant) chatTools() []openai.Tool {
	list := a.Tools.List()
	out := make([]openai.Tool, 0, len(list))
	for _, t := range list {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
