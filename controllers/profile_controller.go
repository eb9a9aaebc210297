package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

type ProfileController struct {
	Profiles *services.ProfileService
}

func NewProfileController(p *services.ProfileService) *ProfileController {
	return &ProfileController{Profiles: p}
}

// GET /api/me and GET /api/profile
func (pc *ProfileController) Get(c *gin.Context) {
	p, err := pc.Profiles.Get(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (pc *ProfileController) Update(c *gin.Context) {
	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := pc.Profiles.Update(c.Request.Context(), c.GetUint("userID"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (pc *ProfileController) Onboard(c *gin.Context) {
	var in services.OnboardingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := pc.Profiles.Onboard(c.Request.Context(), c.GetUint("userID"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
