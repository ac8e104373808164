package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Host        string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`
	GrpcPort    string `envconfig:"GRPC_PORT" default:"50051"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type Breaker struct {
	Enabled      bool   `envconfig:"BREAKER_ENABLED" default:"false"`
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

// OpenAI holds the credentials of the hosted language model runtime.
type OpenAI struct {
	APIKey  string `envconfig:"OPENAI_API_KEY"`
	BaseURL string `envconfig:"OPENAI_BASE_URL"`
	Model   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
}

// Realtime configures the voice session. Audio, speech recognition, turn
// detection and synthesis all run inside the hosted runtime.
type Realtime struct {
	Enabled            bool    `envconfig:"REALTIME_ENABLED" default:"false"`
	URL                string  `envconfig:"REALTIME_URL" default:"wss://api.openai.com/v1/realtime"`
	Model              string  `envconfig:"REALTIME_MODEL" default:"gpt-4o-realtime-preview"`
	Voice              string  `envconfig:"REALTIME_VOICE" default:"alloy"`
	TranscriptionModel string  `envconfig:"REALTIME_TRANSCRIPTION_MODEL" default:"whisper-1"`
	Language           string  `envconfig:"REALTIME_LANGUAGE"`
	TurnDetection      string  `envconfig:"REALTIME_TURN_DETECTION" default:"server_vad"`
	VADThreshold       float64 `envconfig:"REALTIME_VAD_THRESHOLD" default:"0.5"`
	PrefixPaddingMs    int     `envconfig:"REALTIME_PREFIX_PADDING_MS" default:"300"`
	SilenceDurationMs  int     `envconfig:"REALTIME_SILENCE_DURATION_MS" default:"500"`
	NoiseReduction     string  `envconfig:"REALTIME_NOISE_REDUCTION" default:"near_field"`
}

type Assistant struct {
	MaxToolRounds int `envconfig:"ASSISTANT_MAX_TOOL_ROUNDS" default:"5"`
	ReplyTimeout  int `envconfig:"ASSISTANT_REPLY_TIMEOUT" default:"30"`
}

type Config struct {
	// An empty key is a valid configuration: every lookup then answers with
	// the "key not found" message instead of the process refusing to start.
	OpenWeatherMapAPIKey  string `envconfig:"OPENWEATHER_API_KEY"`
	OpenWeatherMapURL     string `envconfig:"OPEN_WEATHER_MAP_URL" default:"http://api.openweathermap.org/data/2.5/weather"`
	OpenWeatherMapTimeout int    `envconfig:"OPEN_WEATHER_MAP_TIMEOUT" default:"10"`

	Server    Server
	Breaker   Breaker
	OpenAI    OpenAI
	Realtime  Realtime
	Assistant Assistant

	LogsPath     string `envconfig:"LOGS_PATH" default:"./log/weather-voice-assistant.log"`
	HTTPLogsPath string `envconfig:"HTTP_LOGS_PATH" default:"./log/weather-http.log"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) HTTPAddress() string {
	return c.Server.Host + ":" + c.Server.HTTPPort
}

func (c *Config) GrpcAddress() string {
	return c.Server.Host + ":" + c.Server.GrpcPort
}

// LookupTimeout is the bound on a single weather request; zero means none.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.OpenWeatherMapTimeout) * time.Second
}
