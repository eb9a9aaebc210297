package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

type AlertController struct {
	Alerts *services.AlertService
}

func NewAlertController(s *services.AlertService) *AlertController {
	return &AlertController{Alerts: s}
}

// GET /api/alerts?unread=true&limit=50
func (ac *AlertController) List(c *gin.Context) {
	unread, _ := strconv.ParseBool(c.Query("unread"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	alerts, err := ac.Alerts.List(c.Request.Context(), c.GetUint("userID"), unread, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (ac *AlertController) MarkRead(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := ac.Alerts.MarkRead(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert marked as read"})
}
