package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

type FoodEntryController struct {
	Entries *services.FoodEntryService
}

func NewFoodEntryController(s *services.FoodEntryService) *FoodEntryController {
	return &FoodEntryController{Entries: s}
}

// GET /api/food-entries?from=YYYY-MM-DD&to=YYYY-MM-DD (default today)
func (fc *FoodEntryController) List(c *gin.Context) {
	entries, err := fc.Entries.ListDates(c.Request.Context(), c.GetUint("userID"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (fc *FoodEntryController) Create(c *gin.Context) {
	var in services.FoodEntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	e, ws, err := fc.Entries.Create(c.Request.Context(), c.GetUint("userID"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": e, "warnings": ws})
}

func (fc *FoodEntryController) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	e, err := fc.Entries.Get(c.Request.Context(), c.GetUint("userID"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (fc *FoodEntryController) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var p services.FoodEntryPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	e, ws, err := fc.Entries.Update(c.Request.Context(), c.GetUint("userID"), id, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": e, "warnings": ws})
}

func (fc *FoodEntryController) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := fc.Entries.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
