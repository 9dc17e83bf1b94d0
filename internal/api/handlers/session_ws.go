package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/session"
)

// SessionWSHandler streams auth-state changes to the frontend so it can
// render the resolving/signed-in/signed-out states without polling.
type SessionWSHandler struct {
	session  *session.Context
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewSessionWSHandler(sess *session.Context, log *logrus.Logger) *SessionWSHandler {
	return &SessionWSHandler{
		session: sess,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type sessionEvent struct {
	Type      string `json:"type"` // auth_state
	Resolving bool   `json:"resolving"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func eventFor(resolving bool, id *models.Identity) sessionEvent {
	e := sessionEvent{Type: "auth_state", Resolving: resolving}
	if id != nil {
		e.UserID = id.ID
		e.Email = id.Email
	}
	return e
}

func (h *SessionWSHandler) Stream(c *gin.Context) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("session ws: upgrade failed")
		return
	}
	conn := &wsConn{c: raw}
	defer raw.Close()

	// current state first, then deltas
	if err := conn.writeJSON(eventFor(h.session.IsResolving(), h.session.CurrentIdentity())); err != nil {
		return
	}

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	unsub := h.session.Watch(func(id *models.Identity) {
		if err := conn.writeJSON(eventFor(false, id)); err != nil {
			closeDone()
		}
	})
	defer unsub()

	// drain reads to detect the peer going away
	go func() {
		for {
			if _, _, err := raw.ReadMessage(); err != nil {
				closeDone()
				return
			}
		}
	}()

	select {
	case <-done:
	case <-c.Request.Context().Done():
	}
}
