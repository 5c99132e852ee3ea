package api

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dialoguereel/internal/caption"
	"dialoguereel/internal/dialogue"
)

// Response codes carried in the envelope
const (
	CodeOK         = 0
	CodeBadRequest = 1001
	CodeValidation = 1002
	CodeInternal   = 1004
)

// Handler serves the planning endpoints
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a Handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// WrapRequest asks for caption lines. Zero sizes use the configured caption style.
type WrapRequest struct {
	Text       string `json:"text"`
	FontSize   int    `json:"font_size" binding:"gte=0"`
	MaxWidthPx int    `json:"max_width_px" binding:"gte=0"`
}

// WrapData is the wrapped caption
type WrapData struct {
	Lines        []string `json:"lines"`
	CharsPerLine int      `json:"chars_per_line"`
}

// TimelineLine is one dialogue line with its measured voice duration
type TimelineLine struct {
	Speaker     string  `json:"speaker" binding:"required"`
	Text        string  `json:"text" binding:"required"`
	DurationSec float64 `json:"duration_sec"`
}

// TimelineRequest is the body of POST /api/v1/timeline
type TimelineRequest struct {
	Lines []TimelineLine `json:"lines" binding:"dive"`
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Health())
}

// WrapCaption handles POST /api/v1/captions/wrap
func (h *Handler) WrapCaption(c *gin.Context) {
	var req WrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request", err.Error())
		return
	}

	style := h.service.RenderConfig().Caption
	if req.FontSize == 0 {
		req.FontSize = style.FontSize
	}
	if req.MaxWidthPx == 0 {
		req.MaxWidthPx = style.MaxWidthPx
	}

	h.respondSuccess(c, WrapData{
		Lines:        caption.Wrap(req.Text, req.FontSize, req.MaxWidthPx),
		CharsPerLine: caption.CharsPerLine(req.FontSize, req.MaxWidthPx),
	})
}

// Timeline handles POST /api/v1/timeline
func (h *Handler) Timeline(c *gin.Context) {
	var req TimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request", err.Error())
		return
	}

	lines := make([]dialogue.Line, len(req.Lines))
	durations := make([]time.Duration, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = dialogue.Line{Speaker: dialogue.SpeakerID(l.Speaker), Text: l.Text}
		durations[i] = time.Duration(math.Round(l.DurationSec * float64(time.Second)))
	}

	result, err := h.service.Plan(lines, durations)
	if err != nil {
		if errors.Is(err, dialogue.ErrValidation) {
			h.respondError(c, http.StatusUnprocessableEntity, CodeValidation, "validation failed", err.Error())
			return
		}
		h.logger.Error("failed to plan timeline", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, CodeInternal, "internal error", err.Error())
		return
	}

	h.respondSuccess(c, result)
}

func (h *Handler) respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    CodeOK,
		"message": "success",
		"data":    data,
	})
}

func (h *Handler) respondError(c *gin.Context, statusCode, code int, message, details string) {
	c.JSON(statusCode, gin.H{
		"code":    code,
		"message": message,
		"data":    details,
	})
}
