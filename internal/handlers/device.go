package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type commandRequest struct {
	Text string `json:"text" example:"STATUS"`
}

// @Summary      Run a text command
// @Description  Same command language as SMS: ACTIVATE, DEACTIVATE, SEASON <season>, STATUS.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      commandRequest  true  "Command"
// @Success      200   {object}  smsReply
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/commands [post]
// @Security     BearerAuth
func (h *Handler) postCommand(c *gin.Context) {
	var req commandRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	reply := h.services.Process(c.Request.Context(), req.Text)
	h.log.Infow("operator_command", "operator", c.GetInt(operatorCtxKey), "text", req.Text)
	c.JSON(http.StatusOK, smsReply{Reply: reply})
}

// @Summary      Device status
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.DeviceStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.DeviceStatus(time.Now()))
}

// @Summary      Pattern counts per season
// @Tags         patterns
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/patterns [get]
// @Security     BearerAuth
func (h *Handler) getPatterns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"counts": h.services.Counts()})
}

// @Summary      Reload the pattern catalog
// @Description  On failure the previous patterns stay in use.
// @Tags         patterns
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/patterns/reload [post]
// @Security     BearerAuth
func (h *Handler) reloadPatterns(c *gin.Context) {
	if err := h.services.Reload(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to reload patterns", "patterns_reload_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "counts": h.services.Counts()})
}
