package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lpScope/internal/model"
	"lpScope/internal/valuation"
)

//go:generate mockgen -destination=mocks/mock_calculator.go -package=mocks lpScope/internal/api Calculator

// Calculator values a user's position in a pool.
type Calculator interface {
	CalculateLP(ctx context.Context, poolAddress, userAddress string) (valuation.Outcome, error)
}

// CalculateRequest is the body of POST /api/calculate_lp.
type CalculateRequest struct {
	PoolAddress string `json:"pool_address"`
	UserAddress string `json:"user_address"`
}

// ErrorResponse is the error envelope of every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

const (
	msgMissingFields  = "Pool address and user address are required"
	msgInvalidResult  = "Invalid result from calculate_lp function"
	msgInternalError  = "Internal server error"
	msgNotFound       = "Endpoint not found"
	msgInvalidAddress = "Invalid address for "
)

// LPHandler serves position valuations.
type LPHandler struct {
	calc    Calculator
	timeout time.Duration
	logger  *zap.Logger
}

// NewLPHandler creates the handler. A zero timeout leaves requests unbounded.
func NewLPHandler(calc Calculator, timeout time.Duration, logger *zap.Logger) *LPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LPHandler{calc: calc, timeout: timeout, logger: logger}
}

// CalculateLP handles POST /api/calculate_lp.
func (h *LPHandler) CalculateLP(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PoolAddress == "" || req.UserAddress == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingFields})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	outcome, err := h.calc.CalculateLP(ctx, req.PoolAddress, req.UserAddress)
	if err != nil {
		var invalid *model.InvalidAddressError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidAddress + invalid.Tag})
			return
		}
		h.logger.Error("calculate lp",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternalError})
		return
	}

	switch outcome.Status {
	case valuation.StatusOK:
		c.JSON(http.StatusOK, outcome.Result)
	default:
		h.logger.Info("calculate lp without result",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.String("status", string(outcome.Status)),
			zap.Error(outcome.Err),
		)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: msgInvalidResult, Reason: string(outcome.Status)})
	}
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
