package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/agent"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/config"
	assistantHandler "github.com/Nazarious-ucu/weather-voice-assistant/internal/handlers/assistant"
	grpcHandler "github.com/Nazarious-ucu/weather-voice-assistant/internal/handlers/grpc"
	toolsHandler "github.com/Nazarious-ucu/weather-voice-assistant/internal/handlers/tools"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/handlers/voice"
	weatherHandler "github.com/Nazarious-ucu/weather-voice-assistant/internal/handlers/weather"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
	loggerT "github.com/Nazarious-ucu/weather-voice-assistant/internal/services/logger"
	metricsSvc "github.com/Nazarious-ucu/weather-voice-assistant/internal/services/metrics"
	serviceWeather "github.com/Nazarious-ucu/weather-voice-assistant/internal/services/weather"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/tools"
	fLogger "github.com/Nazarious-ucu/weather-voice-assistant/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// ServiceContainer holds initialized dependencies for servers.
type ServiceContainer struct {
	WeatherService *serviceWeather.Service
	Tools          *tools.Registry
	Assistant      *agent.Assistant
	GrpcServer     *grpc.Server

	Router     *gin.Engine
	Srv        *http.Server
	fileLogger *zap.Logger
}

// App ties together config, logger, and metrics for startup/shutdown.
type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metricsSvc.Metrics
}

// New prepares a new App with given config, zerolog logger, and metrics.
func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics) *App {
	return &App{
		cfg: cfg,
		l:   logger,
		m:   met,
	}
}

// Start runs the HTTP and gRPC servers until ctx is cancelled or one of them fails.
func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.init()
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)

	go func() {
		a.l.Info().Str("address", srvContainer.Srv.Addr).Msg("HTTP server running")
		if err := srvContainer.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	addrGrpc := a.cfg.GrpcAddress()
	go func() {
		a.l.Info().Str("address", addrGrpc).Msg("gRPC server running")
		l, lErr := net.Listen("tcp", addrGrpc)
		if lErr != nil {
			errCh <- lErr
			return
		}
		if serveErr := srvContainer.GrpcServer.Serve(l); serveErr != nil {
			errCh <- serveErr
		}
	}()

	a.l.Info().
		Str("http_port", a.cfg.Server.HTTPPort).
		Str("grpc_port", a.cfg.Server.GrpcPort).
		Bool("chat_enabled", a.cfg.OpenAI.APIKey != "").
		Bool("voice_enabled", a.voiceEnabled()).
		Msg("weather voice assistant started")

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info().Msg("shutdown signal received, stopping weather voice assistant")
	case runErr = <-errCh:
		a.l.Error().Err(runErr).Msg("server failed")
	}

	if err := a.Shutdown(srvContainer); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown application")
		return errors.Join(runErr, err)
	}
	a.l.Info().Msg("application shutdown successfully")
	return runErr
}

// Shutdown stops both servers and syncs the HTTP traffic logger.
func (a *App) Shutdown(srvContainer ServiceContainer) error {
	a.l.Info().Msg("stopping weather voice assistant…")

	defer func(logger *zap.Logger) {
		if err := logger.Sync(); err != nil {
			a.l.Warn().Err(err).Msg("failed to sync file logger")
		}
	}(srvContainer.fileLogger)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.l.Info().Msg("shutting down HTTP server")
	err := srvContainer.Srv.Shutdown(ctx)

	a.l.Info().Msg("shutting down gRPC server")
	srvContainer.GrpcServer.GracefulStop()

	a.l.Info().Msg("shutdown complete")
	return err
}

// init builds services, routes and servers without starting them.
func (a *App) init() (ServiceContainer, error) {
	a.l.Info().
		Str("weather_url", a.cfg.OpenWeatherMapURL).
		Bool("weather_key_set", a.cfg.OpenWeatherMapAPIKey != "").
		Bool("breaker_enabled", a.cfg.Breaker.Enabled).
		Msg("initializing weather voice assistant")

	fileLogger, err := fLogger.NewFileLogger(a.cfg.HTTPLogsPath)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to create file logger, outbound requests will not be logged")
		fileLogger = zap.NewNop()
	}

	// HTTP client logging, credential masked
	roundTripper := loggerT.NewRoundTripper(fileLogger, "appid")
	httpLogClient := &http.Client{
		Transport: roundTripper,
		Timeout:   a.cfg.LookupTimeout(),
	}

	weatherService := serviceWeather.NewService(a.l, a.weatherClient(httpLogClient), a.m)

	registry, err := tools.NewRegistry(tools.NewWeatherTool(weatherService))
	if err != nil {
		return ServiceContainer{}, err
	}
	registry.WithObserver(a.m)
	assistant := agent.NewAssistant(registry)

	router := gin.New()
	router.Use(gin.Recovery(), a.m.HTTPMiddleware())
	router.GET("/metrics", gin.WrapH(a.m.Handler()))

	wHandler := weatherHandler.NewHandler(weatherService)
	tHandler := toolsHandler.NewHandler(registry)
	aHandler := assistantHandler.NewHandler(a.chatFactory(assistant), a.l)
	vHandler := voice.NewHandler(a.voiceDialer(assistant), a.l)

	api := router.Group("/api")
	{
		api.GET("/weather", wHandler.GetWeather)
		api.GET("/tools", tHandler.List)
		api.POST("/tools/:name", tHandler.Invoke)
		api.POST("/assistant/sessions", aHandler.Start)
		api.POST("/assistant/sessions/:id/messages", aHandler.Message)
		api.DELETE("/assistant/sessions/:id", aHandler.End)
		api.GET("/voice", vHandler.Stream)
	}

	// Setup gRPC server with metrics interceptors
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(a.m.UnaryInterceptor()),
		grpc.StreamInterceptor(a.m.StreamInterceptor()),
	)
	grpcHandler.RegisterWeatherToolServer(grpcServer, grpcHandler.NewWeatherGRPCServer(weatherService))
	a.m.GRPC.InitializeMetrics(grpcServer)

	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	return ServiceContainer{
		WeatherService: weatherService,
		Tools:          registry,
		Assistant:      assistant,
		GrpcServer:     grpcServer,
		Router:         router,
		Srv:            httpServer,
		fileLogger:     fileLogger,
	}, nil
}

type weatherClient interface {
	Fetch(ctx context.Context, location string) models.LookupResult
}

func (a *App) weatherClient(httpClient *http.Client) weatherClient {
	openWeather := serviceWeather.NewClientOpenWeatherMap(
		a.cfg.OpenWeatherMapAPIKey,
		a.cfg.OpenWeatherMapURL,
		httpClient,
		a.l,
	)
	if !a.cfg.Breaker.Enabled {
		return openWeather
	}

	breakerCfg := serviceWeather.BreakerConfig{
		TimeInterval: time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
		TimeTimeOut:  time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
		RepeatNumber: a.cfg.Breaker.RepeatNumber,
	}
	return serviceWeather.NewBreakerClient("OpenWeather", breakerCfg, openWeather)
}

func (a *App) openAIConfig() openai.ClientConfig {
	cfg := openai.DefaultConfig(a.cfg.OpenAI.APIKey)
	if a.cfg.OpenAI.BaseURL != "" {
		cfg.BaseURL = a.cfg.OpenAI.BaseURL
	}
	return cfg
}

// chatFactory is nil without an OpenAI key; the handler then answers 503.
func (a *App) chatFactory(assistant *agent.Assistant) assistantHandler.SessionFactory {
	if a.cfg.OpenAI.APIKey == "" {
		return nil
	}

	llm := openai.NewClientWithConfig(a.openAIConfig())
	opts := agent.ChatOptions{
		Model:         a.cfg.OpenAI.Model,
		MaxToolRounds: a.cfg.Assistant.MaxToolRounds,
		ReplyTimeout:  time.Duration(a.cfg.Assistant.ReplyTimeout) * time.Second,
	}
	return func(id string) assistantHandler.Session {
		return agent.NewChatSession(id, assistant, llm, opts, a.l)
	}
}

func (a *App) voiceEnabled() bool {
	return a.cfg.Realtime.Enabled && a.cfg.OpenAI.APIKey != ""
}

func (a *App) voiceDialer(assistant *agent.Assistant) voice.DialFunc {
	if !a.voiceEnabled() {
		return nil
	}

	opts := sessionOptions(a.cfg.Realtime)
	return func(ctx context.Context, events voice.Events) (voice.Session, error) {
		sess, err := agent.DialRealtime(ctx, a.cfg.Realtime.URL, a.cfg.OpenAI.APIKey, assistant, opts, a.l)
		if err != nil {
			return nil, err
		}
		sess.OnAudioDelta = events.OnAudio
		sess.OnTranscript = events.OnTranscript
		sess.OnError = events.OnError

		if err := sess.Configure(); err != nil {
			_ = sess.Close()
			return nil, err
		}
		if err := sess.Greet(); err != nil {
			_ = sess.Close()
			return nil, err
		}
		return sess, nil
	}
}

func sessionOptions(cfg config.Realtime) agent.SessionOptions {
	return agent.SessionOptions{
		Model:              cfg.Model,
		Voice:              cfg.Voice,
		TranscriptionModel: cfg.TranscriptionModel,
		Language:           cfg.Language,
		TurnDetection: agent.TurnDetection{
			Type:              cfg.TurnDetection,
			Threshold:         cfg.VADThreshold,
			PrefixPaddingMs:   cfg.PrefixPaddingMs,
			SilenceDurationMs: cfg.SilenceDurationMs,
		},
		NoiseReduction: cfg.NoiseReduction,
	}
}
