package handlers

import (
	"errors"
	"net/http"

	"greenguile/internal/models"
	"greenguile/internal/settings"

	"github.com/gin-gonic/gin"
)

type settingRequest struct {
	Value any `json:"value"`
}

// @Summary      All device settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Snapshot().Document())
}

// @Summary      One device setting
// @Tags         settings
// @Produce      json
// @Param        key  path      string  true  "Setting key, e.g. volume or active_hours.start"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/settings/{key} [get]
// @Security     BearerAuth
func (h *Handler) getSetting(c *gin.Context) {
	key := c.Param("key")
	v := h.services.Get(key, nil)
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting: " + key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": v})
}

// @Summary      Update a device setting
// @Description  The change is validated, applied immediately and persisted.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        key   path      string          true  "Setting key"
// @Param        body  body      settingRequest  true  "New value"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings/{key} [put]
// @Security     BearerAuth
func (h *Handler) putSetting(c *gin.Context) {
	key := c.Param("key")
	var req settingRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	err := h.services.Set(c.Request.Context(), key, req.Value)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrInvalidSetting), errors.Is(err, models.ErrInvalidSeason):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, settings.ErrPersistence):
		h.logAndJSONError(c, http.StatusInternalServerError, "setting applied but not saved", "settings_put_not_saved", err, "key", key)
		return
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to update setting", "settings_put_failed", err, "key", key)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": h.services.Get(key, nil)})
}
