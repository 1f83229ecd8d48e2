package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/composer/internal/core/events/hub"
	"github.com/zeusync/composer/internal/core/observability/log"
)

// wsSubscriber forwards notifications to one websocket connection.
type wsSubscriber struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (c *wsSubscriber) ID() string { return c.id }

func (c *wsSubscriber) Notify(_ context.Context, n hub.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(n)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		http.Error(w, ErrMissingTopic.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	sub := &wsSubscriber{id: "ws-" + uuid.NewString(), conn: conn, writeTimeout: s.writeTimeout}
	if _, err = s.hub.Subscribe(topic, sub); err != nil {
		s.logger.Warn("websocket subscribe failed", log.String("topic", topic), log.Error(err))
		_ = conn.Close()
		return
	}
	l := s.logger.With(log.String("topic", topic), log.String("subscriber", sub.id))
	l.Debug("websocket subscribed", log.String("remote", conn.RemoteAddr().String()))

	defer func() {
		s.hub.Unsubscribe(topic, sub)
		_ = conn.Close()
		l.Debug("websocket unsubscribed")
	}()

	// Clients do not send anything meaningful; reading only detects close.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
