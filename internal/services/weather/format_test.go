package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/services/weather"
)

func TestFormat(t *testing.T) {
	report := models.WeatherReport{
		City:        "London",
		Country:     "GB",
		Description: "clear sky",
		Temperature: 18.26,
		FeelsLike:   17.9,
		Humidity:    models.Quantity{Value: 60, Integer: true},
		WindSpeed:   models.Quantity{Value: 3.1},
		Pressure:    models.Quantity{Value: 1012, Integer: true},
	}

	testCases := []struct {
		name   string
		result models.LookupResult
		want   string
	}{
		{
			name:   "success",
			result: models.Success("London", report),
			want:   londonSentence,
		},
		{
			name:   "configuration missing",
			result: models.ConfigurationMissing("London"),
			want:   "Weather API key not found. Please set OPENWEATHER_API_KEY environment variable.",
		},
		{
			name:   "not found",
			result: models.NotFound("Gotham"),
			want:   "Could not find weather for 'Gotham'. Please check the city name.",
		},
		{
			name:   "transport failure",
			result: models.TransportFailure("London", "OpenWeatherMap API error: status 500 Internal Server Error"),
			want:   "Error fetching weather data: OpenWeatherMap API error: status 500 Internal Server Error",
		},
		{
			name:   "schema mismatch",
			result: models.SchemaMismatch("London", "wind"),
			want:   "Unexpected data format from weather API. Could not parse weather information.",
		},
		{
			name:   "unexpected",
			result: models.Unexpected("London", "boom"),
			want:   "An unexpected error occurred: boom",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, weather.Format(tc.result))
		})
	}
}

func TestFormat_CapitalizesOnlyFirstLetter(t *testing.T) {
	report := models.WeatherReport{
		City:        "Oslo",
		Country:     "NO",
		Description: "OVERCAST Clouds",
		Temperature: -0.04,
		FeelsLike:   -3.96,
		Humidity:    models.Quantity{Value: 93, Integer: true},
		WindSpeed:   models.Quantity{Value: 5.14},
		Pressure:    models.Quantity{Value: 998, Integer: true},
	}

	got := weather.Format(models.Success("Oslo", report))

	assert.Contains(t, got, "is Overcast clouds.")
	assert.Contains(t, got, "The temperature is -0.0°C, but it feels like -4.0°C.")
	assert.Contains(t, got, "wind speed is 5.14 m/s")
}
