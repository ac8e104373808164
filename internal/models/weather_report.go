package models

import (
	"strconv"
	"strings"
)

// Quantity is a provider reading that keeps the form it was sent in, so an
// integer humidity renders as "60" and a float wind speed as "3.0".
type Quantity struct {
	Value   float64 `json:"value"`
	Integer bool    `json:"integer"`
}

func (q Quantity) String() string {
	if q.Integer {
		return strconv.FormatFloat(q.Value, 'f', 0, 64)
	}
	s := strconv.FormatFloat(q.Value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WeatherReport is a single point-in-time observation for one place.
type WeatherReport struct {
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Description string   `json:"description"`
	Temperature float64  `json:"temperature"`
	FeelsLike   float64  `json:"feels_like"`
	Humidity    Quantity `json:"humidity"`
	WindSpeed   Quantity `json:"wind_speed"`
	Pressure    Quantity `json:"pressure"`
}
