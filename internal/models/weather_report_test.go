package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
)

func TestQuantity_String(t *testing.T) {
	testCases := []struct {
		name string
		q    models.Quantity
		want string
	}{
		{name: "integer", q: models.Quantity{Value: 60, Integer: true}, want: "60"},
		{name: "float", q: models.Quantity{Value: 3.1}, want: "3.1"},
		{name: "whole float keeps decimal", q: models.Quantity{Value: 3}, want: "3.0"},
		{name: "negative float", q: models.Quantity{Value: -0.25}, want: "-0.25"},
		{name: "large integer", q: models.Quantity{Value: 1012, Integer: true}, want: "1012"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.q.String())
		})
	}
}

func TestLookupResult_Constructors(t *testing.T) {
	report := models.WeatherReport{City: "Lviv"}

	ok := models.Success("Lviv", report)
	assert.True(t, ok.OK())
	assert.Equal(t, "Lviv", ok.Report.City)

	nf := models.NotFound("Atlantis")
	assert.False(t, nf.OK())
	assert.Nil(t, nf.Report)
	assert.Equal(t, models.KindNotFound, nf.Kind)

	sm := models.SchemaMismatch("Lviv", "wind.speed")
	assert.Equal(t, "wind.speed", sm.MissingField)
}
