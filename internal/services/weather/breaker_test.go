package weather_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/services/weather"
)

var breakerCfg = weather.BreakerConfig{
	TimeInterval: 30 * time.Second,
	TimeTimeOut:  15 * time.Second,
	RepeatNumber: 5,
}

const (
	breakerName = "TestAPI"
	city        = "Lviv"
)

func TestBreakerClient_Success(t *testing.T) {
	wrapped := new(mockAPIClient)
	expected := models.Success(city, lvivReport())

	wrapped.On("Fetch", mock.Anything, city).Return(expected).Once()

	bc := weather.NewBreakerClient(breakerName, breakerCfg, wrapped)

	assert.Equal(t, expected, bc.Fetch(context.Background(), city))

	wrapped.AssertExpectations(t)
	wrapped.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestBreakerClient_NotFoundDoesNotTrip(t *testing.T) {
	wrapped := new(mockAPIClient)
	wrapped.On("Fetch", mock.Anything, city).Return(models.NotFound(city)).Times(7)

	bc := weather.NewBreakerClient(breakerName, breakerCfg, wrapped)

	for i := 0; i < 7; i++ {
		assert.Equal(t, models.KindNotFound, bc.Fetch(context.Background(), city).Kind)
	}
	assert.Equal(t, "closed", bc.State())
	wrapped.AssertNumberOfCalls(t, "Fetch", 7)
}

func TestBreakerClient_TripCircuitAfterFiveFailures(t *testing.T) {
	wrapped := new(mockAPIClient)
	failure := models.TransportFailure(city, "timeout")

	wrapped.On("Fetch", mock.Anything, city).Return(failure).Times(5)

	bc := weather.NewBreakerClient(breakerName, breakerCfg, wrapped)

	for i := 1; i <= 5; i++ {
		res := bc.Fetch(context.Background(), city)
		assert.Equal(t, failure, res, "call #%d should pass the failure through", i)
	}

	res := bc.Fetch(context.Background(), city)
	assert.Equal(t, models.KindTransportFailure, res.Kind)
	assert.Contains(t, res.Detail, breakerName+" unavailable: circuit breaker is open")
	assert.Equal(t, "open", bc.State())

	wrapped.AssertExpectations(t)
	wrapped.AssertNumberOfCalls(t, "Fetch", 5)
}
