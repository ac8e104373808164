package weather

import (
	"encoding/json"
	"strings"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
)

const notFoundCode = "404"

// providerCode is the "cod" field. OpenWeatherMap sends it as a number on
// success and as a string on errors.
type providerCode string

func (c *providerCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = providerCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = providerCode(n.String())
	return nil
}

type apiResponse struct {
	Cod     providerCode `json:"cod"`
	Name    *string      `json:"name"`
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp      *json.Number `json:"temp"`
		FeelsLike *json.Number `json:"feels_like"`
		Humidity  *json.Number `json:"humidity"`
		Pressure  *json.Number `json:"pressure"`
	} `json:"main"`
	Wind *struct {
		Speed *json.Number `json:"speed"`
	} `json:"wind"`
	Sys *struct {
		Country *string `json:"country"`
	} `json:"sys"`
}

func (r apiResponse) notFound() bool {
	return r.Cod == notFoundCode
}

// missingField reports the first absent field, checked in the order the
// sentence consumes them. Empty string means the payload is complete.
func (r apiResponse) missingField() string {
	switch {
	case len(r.Weather) == 0:
		return "weather"
	case r.Weather[0].Description == nil:
		return "weather[0].description"
	case r.Main == nil:
		return "main"
	case r.Main.Temp == nil:
		return "main.temp"
	case r.Main.FeelsLike == nil:
		return "main.feels_like"
	case r.Main.Humidity == nil:
		return "main.humidity"
	case r.Wind == nil:
		return "wind"
	case r.Wind.Speed == nil:
		return "wind.speed"
	case r.Main.Pressure == nil:
		return "main.pressure"
	case r.Name == nil:
		return "name"
	case r.Sys == nil:
		return "sys"
	case r.Sys.Country == nil:
		return "sys.country"
	}
	return ""
}

// report converts a validated payload. Call missingField first.
func (r apiResponse) report() (models.WeatherReport, error) {
	temp, err := r.Main.Temp.Float64()
	if err != nil {
		return models.WeatherReport{}, err
	}
	feelsLike, err := r.Main.FeelsLike.Float64()
	if err != nil {
		return models.WeatherReport{}, err
	}
	humidity, err := quantity(*r.Main.Humidity)
	if err != nil {
		return models.WeatherReport{}, err
	}
	wind, err := quantity(*r.Wind.Speed)
	if err != nil {
		return models.WeatherReport{}, err
	}
	pressure, err := quantity(*r.Main.Pressure)
	if err != nil {
		return models.WeatherReport{}, err
	}

	return models.WeatherReport{
		City:        *r.Name,
		Country:     *r.Sys.Country,
		Description: *r.Weather[0].Description,
		Temperature: temp,
		FeelsLike:   feelsLike,
		Humidity:    humidity,
		WindSpeed:   wind,
		Pressure:    pressure,
	}, nil
}

func quantity(n json.Number) (models.Quantity, error) {
	v, err := n.Float64()
	if err != nil {
		return models.Quantity{}, err
	}
	return models.Quantity{
		Value:   v,
		Integer: !strings.ContainsAny(n.String(), ".eE"),
	}, nil
}
