package handlers

import (
	"errors"
	"net/http"

	"device_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List devices
// @Description  Latest snapshot of every controlled device.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	list, err := h.services.Monitoring.ListStates(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("devices_list_failed", "operator", operatorID(c), "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load devices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(list),
		"devices": list,
	})
}

// @Summary      Device state
// @Description  Current state and extended facts of one device.
// @Tags         devices
// @Produce      json
// @Param        name  path      string  true  "Device name"  example(thermostat-1)
// @Success      200   {object}  models.DeviceSnapshot
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/devices/{name}/state [get]
// @Security     BearerAuth
func (h *Handler) getDeviceState(c *gin.Context) {
	name := c.Param("name")
	st, err := h.services.Monitoring.GetState(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
			return
		}
		if h.log != nil {
			h.log.Errorw("device_state_failed", "operator", operatorID(c), "device", name, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load state"})
		return
	}
	c.JSON(http.StatusOK, st)
}
