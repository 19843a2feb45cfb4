package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/websockets"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler upgrades administrators onto the live audit feed
type WebSocketHandler struct {
	hub      *websockets.Hub
	upgrader *websocket.Upgrader
	log      logrus.FieldLogger
}

func NewWebSocketHandler(hub *websockets.Hub, upgrader *websocket.Upgrader, log logrus.FieldLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		upgrader: upgrader,
		log:      log,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.log.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	websockets.ServeWs(h.hub, conn, user.Username)
}
