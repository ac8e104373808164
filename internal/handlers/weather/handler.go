package weather

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
	serviceWeather "github.com/Nazarious-ucu/weather-voice-assistant/internal/services/weather"
)

const timeoutDuration = 10 * time.Second

type weatherLookupService interface {
	Lookup(ctx context.Context, location string) models.LookupResult
}

type Handler struct {
	service weatherLookupService
}

func NewHandler(svc weatherLookupService) *Handler {
	return &Handler{service: svc}
}

type response struct {
	Kind    models.LookupKind     `json:"kind"`
	Message string                `json:"message"`
	Report  *models.WeatherReport `json:"report,omitempty"`
}

// GetWeather answers GET /api/weather?city=. Every lookup outcome is a 200:
// the message is what the assistant would say, the kind tells what happened.
func (h *Handler) GetWeather(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city query parameter is required"})
		return
	}
	ctxWithTimeout, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	result := h.service.Lookup(ctxWithTimeout, city)

	c.JSON(http.StatusOK, response{
		Kind:    result.Kind,
		Message: serviceWeather.Format(result),
		Report:  result.Report,
	})
}
