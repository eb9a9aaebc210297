package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

type WaterController struct {
	Water *services.WaterService
}

func NewWaterController(s *services.WaterService) *WaterController {
	return &WaterController{Water: s}
}

func (wc *WaterController) List(c *gin.Context) {
	entries, err := wc.Water.ListDates(c.Request.Context(), c.GetUint("userID"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (wc *WaterController) Add(c *gin.Context) {
	var in struct {
		AmountMl float64    `json:"amount_ml" binding:"required"`
		LoggedAt *time.Time `json:"logged_at"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	w, err := wc.Water.Add(c.Request.Context(), c.GetUint("userID"), in.AmountMl, in.LoggedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (wc *WaterController) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := wc.Water.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/water/summary?date=YYYY-MM-DD
func (wc *WaterController) Summary(c *gin.Context) {
	s, err := wc.Water.Summary(c.Request.Context(), c.GetUint("userID"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
