package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Kobaiko/carbculator/services"
)

const (
	pingInterval = 25 * time.Second
	pongWait     = 60 * time.Second
)

type RealtimeController struct {
	RT       *services.RealtimeHub
	upgrader websocket.Upgrader
}

// NewRealtimeController accepts upgrades from the given origins; an empty
// list or "*" allows any origin.
func NewRealtimeController(rt *services.RealtimeHub, origins []string) *RealtimeController {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return &RealtimeController{
		RT: rt,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
	}
}

// GET /api/ws streams "entries.changed", "water.changed" and
// "alert.created" events for the authenticated user.
func (rc *RealtimeController) Stream(c *gin.Context) {
	uid := c.GetUint("userID")

	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{UserID: uid, Conn: conn}
	rc.RT.Register(cl)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rc.RT.Unregister(cl)
			return
		}
	}
}
