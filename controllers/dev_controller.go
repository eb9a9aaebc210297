package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
)

// DevController serves helpers that are only mounted outside production.
type DevController struct {
	Push services.Notifier
	RT   services.Broadcaster
}

func NewDevController(p services.Notifier, rt services.Broadcaster) *DevController {
	return &DevController{Push: p, RT: rt}
}

type pushReq struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// POST /api/dev/push sends a test notification to the caller's devices
// and open websocket connections.
func (d *DevController) PushTest(c *gin.Context) {
	uid := c.GetUint("userID")

	var req pushReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if req.Title == "" {
		req.Title = "Test alert"
	}
	if req.Body == "" {
		req.Body = "This is only a test."
	}
	if req.Data == nil {
		req.Data = map[string]string{"type": services.AlertInfo}
	}

	if d.Push != nil {
		d.Push.PushToUser(c.Request.Context(), uid, req.Title, req.Body, req.Data)
	}
	if d.RT != nil {
		d.RT.Broadcast(uid, "dev.push", req)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
