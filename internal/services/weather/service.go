package weather

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
)

type client interface {
	Fetch(ctx context.Context, location string) models.LookupResult
}

// LookupObserver receives the outcome of every lookup, e.g. for metrics.
type LookupObserver interface {
	ObserveLookup(kind models.LookupKind, d time.Duration)
}

// Service answers weather questions for the assistant. It holds no state
// between calls: every lookup is a fresh request.
type Service struct {
	logger   zerolog.Logger
	client   client
	observer LookupObserver
}

// NewService wires a provider client. observer may be nil.
func NewService(logger zerolog.Logger, cl client, observer LookupObserver) *Service {
	return &Service{logger: logger, client: cl, observer: observer}
}

// Lookup performs one lookup and returns its typed outcome.
func (s *Service) Lookup(ctx context.Context, location string) models.LookupResult {
	start := time.Now()

	s.logger.Info().
		Ctx(ctx).
		Str("city", location).
		Msg("weather lookup started")

	result := s.client.Fetch(ctx, location)

	event := s.logger.Info()
	if !result.OK() {
		event = s.logger.Warn().
			Str("detail", result.Detail).
			Str("missing_field", result.MissingField)
	}
	event.
		Ctx(ctx).
		Str("city", location).
		Str("kind", string(result.Kind)).
		Dur("duration_ms", time.Since(start)).
		Msg("weather lookup finished")

	if s.observer != nil {
		s.observer.ObserveLookup(result.Kind, time.Since(start))
	}

	return result
}

// CurrentWeather is the tool-facing form of Lookup: it always returns a
// sentence that can be spoken, whatever happened.
func (s *Service) CurrentWeather(ctx context.Context, location string) string {
	return Format(s.Lookup(ctx, location))
}
