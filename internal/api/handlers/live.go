package handlers

import (
	"log"
	"net/http"
	"net/url"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/codyseavey/nextbet/internal/live"
)

// LiveHandler upgrades requests to the live state feed
type LiveHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewLiveHandler accepts connections from the same host or from one of
// allowedOrigins
func NewLiveHandler(hub *live.Hub, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || slices.Contains(allowedOrigins, origin) {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

func (h *LiveHandler) Subscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Printf("Live handler: upgrade failed: %v", err)
		return
	}

	client := live.NewClient(conn, h.hub)
	log.Printf("Live handler: client %s connected", client.ID)
	client.Serve()
}
