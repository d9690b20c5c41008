package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/meghashyamc/quickfind/services/search"
	"github.com/meghashyamc/quickfind/services/session"
)

const (
	eventsBufferSize = 64
	eventsWriteWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleSessionEvents streams a session over a websocket: the current
// snapshot on connect, then one snapshot per change notification. The stream
// ends when the client disconnects or the session is deleted.
func handleSessionEvents(manager *session.Manager, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := getSession(c, manager, logger)
		if !ok {
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("could not upgrade to websocket", "session_id", s.ID, "err", err.Error())
			return
		}
		defer conn.Close()

		snapshots := make(chan search.Snapshot[catalog.Entry], eventsBufferSize)
		unsubscribe := s.Controller.Subscribe(func() {
			select {
			case snapshots <- s.Controller.Snapshot():
			default:
				logger.Warn("dropping session event for slow client", "session_id", s.ID)
			}
		})
		defer unsubscribe()

		// The client never sends data; reading is only how a disconnect is noticed.
		readDoneC := make(chan struct{})
		go func() {
			defer close(readDoneC)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := writeEvent(conn, s.Controller.Snapshot()); err != nil {
			logger.Warn("could not write session event", "session_id", s.ID, "err", err.Error())
			return
		}

		for {
			select {
			case snapshot := <-snapshots:
				if err := writeEvent(conn, snapshot); err != nil {
					logger.Warn("could not write session event", "session_id", s.ID, "err", err.Error())
					return
				}
			case <-s.Closed():
				message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session deleted")
				if err := conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(eventsWriteWait)); err != nil {
					logger.Debug("could not send close message", "session_id", s.ID, "err", err.Error())
				}
				return
			case <-readDoneC:
				logger.Debug("session events client disconnected", "session_id", s.ID)
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, snapshot search.Snapshot[catalog.Entry]) error {
	if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(snapshot)
}
