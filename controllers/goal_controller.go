package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/nutrition"
	"github.com/Kobaiko/carbculator/services"
)

type GoalController struct {
	Goals *services.GoalService
}

func NewGoalController(g *services.GoalService) *GoalController {
	return &GoalController{Goals: g}
}

func (gc *GoalController) Get(c *gin.Context) {
	g, err := gc.Goals.Get(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (gc *GoalController) Update(c *gin.Context) {
	var patch services.GoalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := gc.Goals.Update(c.Request.Context(), c.GetUint("userID"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type calculateReq struct {
	nutrition.BodyProfile
	Apply bool `json:"apply"`
}

// POST /api/goals/calculate previews a plan; with "apply": true it also
// replaces the current goals.
func (gc *GoalController) Calculate(c *gin.Context) {
	var req calculateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	plan, err := gc.Goals.Calculate(c.Request.Context(), c.GetUint("userID"), req.BodyProfile, req.Apply)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "applied": req.Apply})
}
