package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/session"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = pingPeriod + 10*time.Second

	eventBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventSource delivers session events.
type EventSource interface {
	Subscribe(buffer int) (<-chan session.Event, func())
}

// EventsHandler pushes session events to WebSocket clients as JSON.
type EventsHandler struct {
	source EventSource
	log    zerolog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(source EventSource, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{source: source, log: log}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	events, cancel := h.source.Subscribe(eventBuffer)
	defer cancel()

	// Reads only serve to notice the client closing and to take pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
