package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hivemind/hivemind-server/internal/assist"
)

// AssistHandlers provides HTTP handlers for the generative assist endpoints.
type AssistHandlers struct {
	assist *assist.Service
	log    *zerolog.Logger
}

// NewAssistHandlers creates a new assist handlers instance.
func NewAssistHandlers(svc *assist.Service, logger *zerolog.Logger) *AssistHandlers {
	return &AssistHandlers{
		assist: svc,
		log:    logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GenerateRequest asks for boilerplate code from a description.
type GenerateRequest struct {
	Description string `json:"description" binding:"required"`
	Language    string `json:"language"`
}

// CodeRequest carries a snippet for explain/complete requests.
type CodeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language"`
}

// DebugRequest carries a snippet plus the error it produced.
type DebugRequest struct {
	Code     string `json:"code" binding:"required"`
	Error    string `json:"error"`
	Language string `json:"language"`
}

// Generate handles boilerplate generation.
// POST /api/assist/generate
func (h *AssistHandlers) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid generate request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	text, err := h.assist.GenerateBoilerplate(c.Request.Context(), req.Description, req.Language)
	if err != nil {
		h.respondError(c, err, "generate")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "generated": text})
}

// Explain handles code explanation.
// POST /api/assist/explain
func (h *AssistHandlers) Explain(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid explain request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	text, err := h.assist.ExplainCode(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		h.respondError(c, err, "explain")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "explanation": text})
}

// Debug handles code debugging.
// POST /api/assist/debug
func (h *AssistHandlers) Debug(c *gin.Context) {
	var req DebugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid debug request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	text, err := h.assist.DebugCode(c.Request.Context(), req.Code, req.Error, req.Language)
	if err != nil {
		h.respondError(c, err, "debug")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "debug_info": text})
}

// Complete handles code completion.
// POST /api/assist/complete
func (h *AssistHandlers) Complete(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid complete request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	text, err := h.assist.CompleteCode(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		h.respondError(c, err, "complete")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "completion": text})
}

func (h *AssistHandlers) respondError(c *gin.Context, err error, op string) {
	if errors.Is(err, assist.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "assist features are disabled"})
		return
	}
	h.log.Error().Err(err).Str("op", op).Msg("assist request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "assist request failed"})
}
