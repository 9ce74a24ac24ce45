package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"tasklist/backend/internal/services"
)

type SettingsService interface {
	Get(ctx context.Context, userID uuid.UUID) (*services.Settings, error)
	Update(ctx context.Context, userID uuid.UUID, upd services.SettingsUpdate) (*services.Settings, error)
}

type SettingsHandler struct {
	settings SettingsService
	logger   *zap.Logger
}

func NewSettingsHandler(settings SettingsService, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{settings: settings, logger: logger}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newSettingsResp(settings))
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req settingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	upd, err := req.toInput()
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), userID, upd)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newSettingsResp(settings))
}
