package weather

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
)

const (
	MsgConfigurationMissing = "Weather API key not found. Please set OPENWEATHER_API_KEY environment variable."
	MsgSchemaMismatch       = "Unexpected data format from weather API. Could not parse weather information."
)

// Format renders a lookup result as the sentence the assistant speaks.
// It always returns a non-empty string.
func Format(r models.LookupResult) string {
	switch r.Kind {
	case models.KindSuccess:
		if r.Report == nil {
			return fmt.Sprintf("An unexpected error occurred: %s", "empty weather report")
		}
		return formatReport(*r.Report)
	case models.KindConfigurationMissing:
		return MsgConfigurationMissing
	case models.KindNotFound:
		return fmt.Sprintf("Could not find weather for '%s'. Please check the city name.", r.Location)
	case models.KindTransportFailure:
		return fmt.Sprintf("Error fetching weather data: %s", r.Detail)
	case models.KindSchemaMismatch:
		return MsgSchemaMismatch
	default:
		return fmt.Sprintf("An unexpected error occurred: %s", r.Detail)
	}
}

func formatReport(w models.WeatherReport) string {
	return fmt.Sprintf(
		"The current weather in %s, %s is %s. "+
			"The temperature is %.1f°C, but it feels like %.1f°C. "+
			"Humidity is %s%%, wind speed is %s m/s, and atmospheric pressure is %s hPa.",
		w.City, w.Country, capitalize(w.Description),
		w.Temperature, w.FeelsLike,
		w.Humidity, w.WindSpeed, w.Pressure,
	)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(first)) + strings.ToLower(s[size:])
}
