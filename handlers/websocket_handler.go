package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/prediction-pool/realtime"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: сузить до доверенных Origin после выбора фронтенд-домена.
		return true
	},
}

type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// ServeWs - GET /ws/pools/{poolID}.
// Подписывает клиента на события комнаты пула (LEADERBOARD_UPDATED).
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	poolID, err := readIDParam(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP-ошибку клиенту.
		h.logger.Warn("failed to upgrade websocket connection",
			slog.Int("pool_id", poolID),
			slog.Any("error", err),
		)
		return
	}

	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: realtime.PoolRoom(poolID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
