package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tasklist/backend/internal/services"
)

type Sweeper interface {
	Sweep(ctx context.Context, dryRun bool) (*services.SweepReport, error)
}

type AdminHandler struct {
	sweeper Sweeper
	logger  *zap.Logger
}

func NewAdminHandler(sweeper Sweeper, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{sweeper: sweeper, logger: logger}
}

// Sweep runs the auto-delete pass inline. It is a dry run unless the
// request passes dryRun=false explicitly.
func (h *AdminHandler) Sweep(c *gin.Context) {
	dryRun := true
	if raw := c.Query("dryRun"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dryRun must be a boolean", "kind": services.Kind(services.ErrValidation)})
			return
		}
		dryRun = v
	}

	report, err := h.sweeper.Sweep(c.Request.Context(), dryRun)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
