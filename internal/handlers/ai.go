package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/utils"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// AIHandler handles the code generation routes
type AIHandler struct {
	AI *services.AIService
	// BaseContext bounds streams that outlive their handler. It is cancelled on shutdown.
	BaseContext context.Context
}

// GenerateRequest is the body of the generate and stream routes
type GenerateRequest struct {
	Prompt      string `json:"prompt" validate:"required"`
	CurrentCode string `json:"currentCode"`
	Model       string `json:"model" validate:"max=128"`
}

func (r *GenerateRequest) input() services.GenerateInput {
	return services.GenerateInput{Prompt: r.Prompt, CurrentCode: r.CurrentCode, Model: r.Model}
}

// Generate handles POST /api/ai/generate
// @Summary Generate page code
// @Description Generates new markup, or modifies currentCode, from a prompt
// @Tags AI
// @Accept json
// @Produce json
// @Param body body GenerateRequest true "Prompt"
// @Success 200 {object} map[string]string
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /ai/generate [post]
func (h *AIHandler) Generate(c *fiber.Ctx) error {
	var body GenerateRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ValidationErrorResponse(c, err.Error())
	}

	code, err := h.AI.GenerateCode(c.UserContext(), body.input())
	if err != nil {
		return serviceError(c, err, "ai.generate")
	}
	return c.JSON(fiber.Map{"code": code})
}

// Models handles GET /api/ai/models
// @Summary List models
// @Description Lists the provider's coding models, or a fixed list when the provider is unavailable
// @Tags AI
// @Produce json
// @Success 200 {array} services.AIModel
// @Router /ai/models [get]
func (h *AIHandler) Models(c *fiber.Ctx) error {
	return c.JSON(h.AI.ListModels(c.UserContext()))
}

// Stream handles POST /api/ai/stream
// @Summary Stream generated page code
// @Description Relays tokens as server-sent "delta" events, then a "done" event. Nothing is persisted.
// @Tags AI
// @Accept json
// @Produce text/event-stream
// @Param body body GenerateRequest true "Prompt"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /ai/stream [post]
func (h *AIHandler) Stream(c *fiber.Ctx) error {
	var body GenerateRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ValidationErrorResponse(c, err.Error())
	}
	in := body.input()
	logger := zerolog.Ctx(c.UserContext())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	base := h.BaseContext
	if base == nil {
		base = context.Background()
	}

	// The writer outlives the handler and the request context
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(base)
		defer cancel()

		err := h.AI.StreamCode(ctx, in, func(delta string) error {
			if err := writeEvent(w, "delta", fiber.Map{"content": delta}); err != nil {
				cancel()
				return err
			}
			return nil
		})
		if err != nil {
			logger.Warn().Err(err).Msg("AI stream ended early")
			_ = writeEvent(w, "error", fiber.Map{"message": err.Error()})
			return
		}
		_ = writeEvent(w, "done", fiber.Map{})
	}))
	return nil
}

// writeEvent writes one SSE event and flushes it. A flush error means the client is gone.
func writeEvent(w *bufio.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}
