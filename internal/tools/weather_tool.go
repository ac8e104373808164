package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const WeatherToolName = "get_current_weather"

type weatherDescriber interface {
	CurrentWeather(ctx context.Context, location string) string
}

type weatherArgs struct {
	Location string `json:"location"`
}

// NewWeatherTool exposes the weather lookup to the model. Lookup failures are
// part of the answer text; only malformed arguments produce an error.
func NewWeatherTool(svc weatherDescriber) Tool {
	return Tool{
		Name: WeatherToolName,
		Description: "Returns current weather for the given location, like 'New York' or 'Istanbul'. " +
			"This tool calls an external API to get real-time weather data.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"location": {
					Type:        jsonschema.String,
					Description: "The name of the city, e.g. London or New York",
				},
			},
			Required: []string{"location"},
		},
		Invoke: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args weatherArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
			}
			return svc.CurrentWeather(ctx, args.Location), nil
		},
	}
}
