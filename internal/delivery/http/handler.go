package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wbparse/backend/internal/domain"
)

// ProductService is what the handlers need from the pipeline.
type ProductService interface {
	Parse(ctx context.Context, req domain.ParseRequest) (*domain.ParseResult, error)
	ListProducts(ctx context.Context) ([]domain.StoredProduct, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products ProductService
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(products ProductService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{products: products, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "wbparse",
		"version": "1.0.0",
	})
}

// Parse runs the catalog pipeline for ?query= and stores the result.
// limit and max_pages are optional positive integers.
func (h *Handler) Parse(c *gin.Context) {
	if h.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrStorageUnavailable.Error()})
		return
	}

	req := domain.ParseRequest{Query: c.Query("query")}
	var err error
	if req.Limit, err = optionalInt(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxPages, err = optionalInt(c, "max_pages"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.products.Parse(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListProducts returns every stored product.
func (h *Handler) ListProducts(c *gin.Context) {
	if h.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrStorageUnavailable.Error()})
		return
	}

	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Any("error", err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func optionalInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return v, nil
}
