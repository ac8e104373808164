package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
)

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// errUpstream marks a transport failure so the breaker counts it.
var errUpstream = errors.New("upstream failure")

// BreakerClient stops calling the provider after RepeatNumber consecutive
// transport failures. It never retries; an open circuit is reported as a
// transport failure without a network call.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped client
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Fetch(ctx context.Context, location string) models.LookupResult {
	out, err := b.cb.Execute(func() (interface{}, error) {
		res := b.wrapped.Fetch(ctx, location)
		if res.Kind == models.KindTransportFailure {
			return res, errUpstream
		}
		return res, nil
	})

	if res, ok := out.(models.LookupResult); ok {
		return res
	}
	if err == nil {
		err = errors.New("unexpected breaker result")
	}
	return models.TransportFailure(location, fmt.Sprintf("%s unavailable: %v", b.name, err))
}

func (b *BreakerClient) State() string {
	return b.cb.State().String()
}
