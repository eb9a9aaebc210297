package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

type DeviceController struct {
	Push *services.PushService
}

func NewDeviceController(ps *services.PushService) *DeviceController {
	return &DeviceController{Push: ps}
}

func (dc *DeviceController) Register(c *gin.Context) {
	var req services.RegisterDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	dev, err := dc.Push.RegisterDevice(c.Request.Context(), c.GetUint("userID"), req.Platform, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": dev.ID, "endpoint_arn": dev.EndpointARN})
}

// POST /api/notifications/toggle
func (dc *DeviceController) ToggleNotifications(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	if err := dc.Push.SetEnabled(c.Request.Context(), c.GetUint("userID"), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "notifications updated",
		"enabled": *req.Enabled,
	})
}
