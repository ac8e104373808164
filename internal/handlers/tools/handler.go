package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai/jsonschema"

	toolreg "github.com/Nazarious-ucu/weather-voice-assistant/internal/tools"
)

const timeoutDuration = 10 * time.Second

type registry interface {
	List() []toolreg.Tool
	Invoke(ctx context.Context, name string, args json.RawMessage) (string, error)
}

type Handler struct {
	registry registry
}

func NewHandler(reg registry) *Handler {
	return &Handler{registry: reg}
}

type toolInfo struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  jsonschema.Definition `json:"parameters"`
}

// List answers GET /api/tools with the catalog shown to the model.
func (h *Handler) List(c *gin.Context) {
	list := h.registry.List()
	out := make([]toolInfo, 0, len(list))
	for _, t := range list {
		out = append(out, toolInfo{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	c.JSON(http.StatusOK, gin.H{"tools": out})
}

// Invoke answers POST /api/tools/:name; the body is the tool's JSON arguments.
func (h *Handler) Invoke(c *gin.Context) {
	name := c.Param("name")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	out, err := h.registry.Invoke(ctxWithTimeout, name, body)
	switch {
	case errors.Is(err, toolreg.ErrToolNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, toolreg.ErrInvalidArguments):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"tool": name, "output": out})
	}
}
