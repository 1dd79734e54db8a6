package server

import (
	"net/http"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 512
	eventBuffer = 16
)

const (
	WS_MESSAGE_STATE   = "state"
	WS_MESSAGE_CHANGED = "state_changed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsMessage struct {
	Type     string `json:"type"`
	Action   string `json:"action,omitempty"`
	Revision uint64 `json:"revision"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebSocketHandler streams the store state: the current state on connect,
// then one message per state change.
func (s *Server) WebSocketHandler(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("http@ws upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	clientId := uuid.NewString()
	logger := s.logger.With(zap.String("client", clientId))
	logger.Debug("http@ws connected")

	events := make(chan domain.StateChangedEvent, eventBuffer)
	sub := s.eventStream.Subscribe(func(evt any) {
		changed, ok := evt.(domain.StateChangedEvent)
		if !ok {
			return
		}
		select {
		case events <- changed:
		default:
			logger.Warn("http@ws slow client, event dropped")
		}
	})
	defer s.eventStream.Unsubscribe(sub)

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// reader, only to detect close and handle control frames
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("http@ws read error", zap.Error(err))
				}
				return
			}
		}
	}()

	initial := wsMessage{Type: WS_MESSAGE_STATE}
	if state, err := s.store.GetState(); err != nil {
		initial.Error = err.Error()
	} else {
		initial.Revision = state.Revision
		initial.Data = stateView(state)
	}
	if err := writeJSON(conn, initial); err != nil {
		return nil
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			logger.Debug("http@ws disconnected")
			return nil
		case ev := <-events:
			err := writeJSON(conn, wsMessage{
				Type:     WS_MESSAGE_CHANGED,
				Action:   ev.Action.ActionType(),
				Revision: ev.State.Revision,
				Data:     stateView(ev.State),
			})
			if err != nil {
				logger.Debug("http@ws write error", zap.Error(err))
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, msg wsMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func stateView(state domain.AppState) stateResponse {
	return stateResponse{
		Config:     state.Config,
		Charger:    state.Charger.Limited(),
		CellLimit:  state.Charger.CellLimit,
		UpdatedAt:  state.Charger.UpdatedAt,
		Connection: state.Connection,
		Revision:   state.Revision,
	}
}
