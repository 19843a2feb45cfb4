package websockets

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// NewUpgrader accepts handshakes from the listed origins. "*" allows any
// origin; an empty list keeps gorilla's same-origin check.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	u := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	switch {
	case len(allowedOrigins) == 0:
	case slices.Contains(allowedOrigins, "*"):
		u.CheckOrigin = func(*http.Request) bool { return true }
	default:
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin)
		}
	}

	return u
}
