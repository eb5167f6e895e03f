package http

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/common"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/gemini"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

type chatHandler struct {
	logger          *logrus.Logger
	upstream        gemini.Client
	maxMessageChars int
}

// ChatHandlerDeps contains all dependencies for ChatHandler.
type ChatHandlerDeps struct {
	Logger          *logrus.Logger
	Upstream        gemini.Client
	MaxMessageChars int
}

func NewChatHandler(deps ChatHandlerDeps) Handler {
	return &chatHandler{
		logger:          deps.Logger,
		upstream:        deps.Upstream,
		maxMessageChars: deps.MaxMessageChars,
	}
}

// Handle validates the chat request, bounds the message, forwards it to
// the generative API, and relays the reply. Non-success upstream bodies
// are replaced with a generic error so provider internals never reach the
// caller.
func (h *chatHandler) Handle(c *fiber.Ctx) error {
	var parser fastjson.Parser
	body, err := parser.ParseBytes(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Corpo da requisição inválido",
			"details": err.Error(),
		})
	}

	message := body.Get("message")
	if message == nil || message.Type() != fastjson.TypeString {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Mensagem inválida",
			"details": "o campo 'message' é obrigatório e deve ser uma string",
		})
	}

	text := string(message.GetStringBytes())
	if strings.TrimSpace(text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Mensagem inválida",
			"details": "o campo 'message' não pode ser vazio",
		})
	}
	text = truncateRunes(text, h.maxMessageChars)

	var contents json.RawMessage
	if history := body.Get("contents"); history != nil && history.Type() != fastjson.TypeNull {
		contents = history.MarshalTo(nil)
	} else {
		contents = gemini.SingleTurn(text)
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":    c.Locals(common.RequestIDContextKey),
		"message_chars": len(text),
	}).Debug("forwarding chat message upstream")

	startTime := time.Now()
	result, err := h.upstream.GenerateContent(c.UserContext(), contents)
	prometheus.UpstreamLatency.Observe(float64(time.Since(startTime).Milliseconds()))

	if err != nil {
		prometheus.UpstreamErrorsTotal.WithLabelValues("transport").Inc()
		h.logger.WithError(err).
			WithField("request_id", c.Locals(common.RequestIDContextKey)).
			Error("failed to reach generative api")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Não foi possível contatar o serviço de IA",
		})
	}

	if result.StatusCode < fiber.StatusOK || result.StatusCode >= fiber.StatusMultipleChoices {
		return h.handleUpstreamError(c, result)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(result.StatusCode).Send(result.Body)
}

// handleUpstreamError keeps the upstream status code but swaps the body
// for a generic message.
func (h *chatHandler) handleUpstreamError(c *fiber.Ctx, result *gemini.Result) error {
	prometheus.UpstreamErrorsTotal.WithLabelValues(strconv.Itoa(result.StatusCode)).Inc()

	h.logger.WithFields(logrus.Fields{
		"status":     result.StatusCode,
		"body_bytes": len(result.Body),
		"request_id": c.Locals(common.RequestIDContextKey),
	}).Warn("generative api returned non-success status")
	h.logger.WithField("body", string(result.Body)).Debug("generative api error body")

	details := "Erro interno da API de IA"
	if result.StatusCode == fiber.StatusTooManyRequests {
		details = "Rate limit da API"
	}

	return c.Status(result.StatusCode).JSON(fiber.Map{
		"error":   "Erro na API de IA",
		"details": details,
	})
}

// truncateRunes bounds s to max runes. Indexing by rune keeps multibyte
// text valid after the cut.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
