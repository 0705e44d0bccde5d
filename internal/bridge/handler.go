package bridge

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stackbridge/internal/bridge/model"
	"stackbridge/internal/shared/server/respond"
)

// DefaultMaxBodyBytes caps request bodies when the handler is built without a limit.
const DefaultMaxBodyBytes int64 = 64 << 10

// Bridge is what the handlers need from Service.
type Bridge interface {
	Recommend(ctx context.Context, req model.RecommendationRequest) model.RecommendationResult
	AnalyzeCompatibility(ctx context.Context, req model.CompatibilityRequest) model.CompatibilityResult
	ListSupportedTechnologies(ctx context.Context) model.SupportedTechnologies
	CheckStatus(ctx context.Context) model.Status
}

// Handler wires HTTP handlers to the bridge.
type Handler struct {
	Bridge       Bridge
	MaxBodyBytes int64
}

// NewHandler constructs a Handler. A non-positive maxBodyBytes uses DefaultMaxBodyBytes.
func NewHandler(bridge Bridge, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	registerValidators()
	return &Handler{Bridge: bridge, MaxBodyBytes: maxBodyBytes}
}

// RegisterRoutes attaches bridge routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recommend-stack", h.recommend)
	rg.POST("/analyze-compatibility", h.analyzeCompatibility)
	rg.GET("/supported-technologies", h.supportedTechnologies)
	rg.GET("/status", h.status)
}

func (h *Handler) recommend(c *gin.Context) {
	c.Set(respond.OperationKey, model.OperationRecommend)

	var body recommendBody
	if !h.bind(c, &body) {
		return
	}

	result := h.Bridge.Recommend(c.Request.Context(), body.toModel())
	c.Set(respond.SourceKey, result.Source)
	respond.OK(c, result)
}

func (h *Handler) analyzeCompatibility(c *gin.Context) {
	c.Set(respond.OperationKey, model.OperationCompatibility)

	var body compatibilityBody
	if !h.bind(c, &body) {
		return
	}

	result := h.Bridge.AnalyzeCompatibility(c.Request.Context(), model.CompatibilityRequest{Technologies: body.Technologies})
	c.Set(respond.SourceKey, result.Source)
	respond.OK(c, result)
}

func (h *Handler) supportedTechnologies(c *gin.Context) {
	c.Set(respond.OperationKey, model.OperationTechnologies)
	respond.OK(c, h.Bridge.ListSupportedTechnologies(c.Request.Context()))
}

func (h *Handler) status(c *gin.Context) {
	c.Set(respond.OperationKey, model.OperationStatus)
	respond.OK(c, h.Bridge.CheckStatus(c.Request.Context()))
}

// bind decodes and validates the body into dst, writing the error response
// itself and reporting false when the request is rejected.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBodyBytes)

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	err = translateBindError(err)
	if errors.Is(err, errBodyTooLarge) {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds limit", gin.H{"limit_bytes": h.MaxBodyBytes})
		return false
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", invalid.Issues)
		return false
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
	return false
}
