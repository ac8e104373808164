package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/services/logger"
)

const (
	DefaultOpenWeatherMapURL = "http://api.openweathermap.org/data/2.5/weather"

	credentialParam = "appid"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOpenWeatherMap queries the "current weather by city name" endpoint.
// It makes exactly one request per call and never retries.
type ClientOpenWeatherMap struct {
	apiKey string
	apiURL string
	client HTTPClient
	logger zerolog.Logger
}

// NewClientOpenWeatherMap constructs a new OpenWeatherMap client. An empty
// apiKey is accepted; every Fetch then reports a missing configuration.
func NewClientOpenWeatherMap(apiKey, apiURL string,
	httpClient HTTPClient, logger zerolog.Logger,
) *ClientOpenWeatherMap {
	if apiURL == "" {
		apiURL = DefaultOpenWeatherMapURL
	}
	return &ClientOpenWeatherMap{apiKey: apiKey, apiURL: apiURL, client: httpClient, logger: logger}
}

// Fetch retrieves the current weather for location. Failures are returned as
// result kinds, never as errors or panics.
func (s *ClientOpenWeatherMap) Fetch(ctx context.Context, location string) (result models.LookupResult) {
	if s.apiKey == "" {
		s.logger.Warn().
			Str("city", location).
			Msg("OpenWeatherMap API key is not configured")
		return models.ConfigurationMissing(location)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("city", location).
				Interface("panic", r).
				Msg("unexpected fault during weather lookup")
			result = models.Unexpected(location, fmt.Sprint(r))
		}
	}()

	start := time.Now()

	reqURL, err := s.buildURL(location)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("city", location).
			Msg("failed to build OpenWeatherMap URL")
		return models.TransportFailure(location, err.Error())
	}
	safeURL := logger.RedactURL(reqURL, credentialParam)

	s.logger.Debug().
		Str("city", location).
		Str("url", safeURL).
		Msg("starting OpenWeatherMap request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("city", location).
			Str("url", safeURL).
			Msg("failed to create HTTP request")
		return models.TransportFailure(location, s.redactError(err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error().
			Str("error", s.redactError(err)).
			Str("city", location).
			Str("url", safeURL).
			Msg("error sending HTTP request to OpenWeatherMap")
		return models.TransportFailure(location, s.redactError(err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Error().
				Err(cerr).
				Str("city", location).
				Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("city", location).
			Msg("failed to read OpenWeatherMap response")
		return models.TransportFailure(location, err.Error())
	}

	var raw apiResponse
	decodeErr := json.Unmarshal(body, &raw)

	if resp.StatusCode == http.StatusNotFound || (decodeErr == nil && raw.notFound()) {
		s.logger.Info().
			Str("city", location).
			Str("status", resp.Status).
			Msg("OpenWeatherMap does not know this city")
		return models.NotFound(location)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		s.logger.Error().
			Str("city", location).
			Str("status", resp.Status).
			Msg("OpenWeatherMap API returned non-2xx status")
		return models.TransportFailure(location, fmt.Sprintf("OpenWeatherMap API error: status %s", resp.Status))
	}

	if decodeErr != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(decodeErr, &syntaxErr) {
			s.logger.Error().
				Err(decodeErr).
				Str("city", location).
				Msg("failed to decode OpenWeatherMap response")
			return models.TransportFailure(location, fmt.Sprintf("invalid JSON response: %v", decodeErr))
		}
		s.logger.Error().
			Err(decodeErr).
			Str("city", location).
			Msg("OpenWeatherMap response has unexpected value types")
		return models.Unexpected(location, decodeErr.Error())
	}

	if field := raw.missingField(); field != "" {
		s.logger.Error().
			Str("city", location).
			Str("field", field).
			Msg("OpenWeatherMap response is missing a field")
		return models.SchemaMismatch(location, field)
	}

	report, err := raw.report()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("city", location).
			Msg("failed to convert OpenWeatherMap response")
		return models.Unexpected(location, err.Error())
	}

	s.logger.Info().
		Str("city", location).
		Dur("duration_ms", time.Since(start)).
		Msg("successfully fetched weather data")

	return models.Success(location, report)
}

func (s *ClientOpenWeatherMap) buildURL(location string) (*url.URL, error) {
	u, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid OpenWeatherMap URL %q", s.apiURL)
	}

	q := u.Query()
	q.Set(credentialParam, s.apiKey)
	q.Set("q", location)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()
	return u, nil
}

// redactError keeps the credential out of errors that embed the request URL.
func (s *ClientOpenWeatherMap) redactError(err error) string {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err.Error()
	}
	masked := *uerr
	if parsed, perr := url.Parse(uerr.URL); perr == nil {
		masked.URL = logger.RedactURL(parsed, credentialParam)
	}
	return masked.Error()
}
