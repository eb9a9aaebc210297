package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

type DashboardController struct {
	Dashboard *services.DashboardService
}

func NewDashboardController(s *services.DashboardService) *DashboardController {
	return &DashboardController{Dashboard: s}
}

// GET /api/dashboard/today?date=YYYY-MM-DD
func (dc *DashboardController) Today(c *gin.Context) {
	v, err := dc.Dashboard.Today(c.Request.Context(), c.GetUint("userID"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /api/dashboard/progress?period=day|week|month|year&from=&to=
func (dc *DashboardController) Progress(c *gin.Context) {
	v, err := dc.Dashboard.Progress(c.Request.Context(), c.GetUint("userID"), c.Query("period"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (dc *DashboardController) History(c *gin.Context) {
	h, err := dc.Dashboard.History(c.Request.Context(), c.GetUint("userID"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// GET /api/dashboard/calendar?year=2024&month=2 (default current month)
func (dc *DashboardController) Calendar(c *gin.Context) {
	var (
		year, month int
		err         error
	)
	if s := c.Query("year"); s != "" {
		if year, err = strconv.Atoi(s); err != nil {
			badRequest(c, "year must be a number")
			return
		}
	}
	if s := c.Query("month"); s != "" {
		if month, err = strconv.Atoi(s); err != nil {
			badRequest(c, "month must be a number")
			return
		}
	}
	h, err := dc.Dashboard.Calendar(c.Request.Context(), c.GetUint("userID"), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

func (dc *DashboardController) Trends(c *gin.Context) {
	v, err := dc.Dashboard.Trends(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
