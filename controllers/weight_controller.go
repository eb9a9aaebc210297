package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

type WeightController struct {
	Weight *services.WeightService
}

func NewWeightController(s *services.WeightService) *WeightController {
	return &WeightController{Weight: s}
}

func (wc *WeightController) List(c *gin.Context) {
	entries, err := wc.Weight.List(c.Request.Context(), c.GetUint("userID"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (wc *WeightController) Add(c *gin.Context) {
	var in struct {
		WeightKg   float64    `json:"weight_kg" binding:"required"`
		RecordedAt *time.Time `json:"recorded_at"`
		Note       string     `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	w, err := wc.Weight.Add(c.Request.Context(), c.GetUint("userID"), in.WeightKg, in.RecordedAt, in.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (wc *WeightController) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := wc.Weight.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (wc *WeightController) Summary(c *gin.Context) {
	s, err := wc.Weight.Summary(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
