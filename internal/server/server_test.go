package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/composer/internal/core/events/hub"
	"github.com/zeusync/composer/internal/core/observability/log"
)

func waitForSubscribers(t *testing.T, h *hub.Hub, topic string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.Subscribers(topic)) == n
	}, time.Second, 5*time.Millisecond)
}

func TestWebSocketReceivesNotifications(t *testing.T) {
	h := hub.New()
	srv := New(h, log.NewNop())
	s := httptest.NewServer(srv.Handler())
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?topic=weather"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitForSubscribers(t, h, "weather", 1)
	require.NoError(t, h.Publish(context.Background(), "weather", map[string]any{"temperature": 80}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var n hub.Notification
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, "weather", n.Topic)
	assert.Equal(t, map[string]any{"temperature": float64(80)}, n.Payload)
	assert.NotEmpty(t, n.ID)

	require.NoError(t, conn.Close())
	waitForSubscribers(t, h, "weather", 0)
}

func TestWebSocketRequiresTopicAndToken(t *testing.T) {
	srv := New(hub.New(), log.NewNop(), WithToken("supersecrettoken"))
	s := httptest.NewServer(srv.Handler())
	defer s.Close()

	base := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base+"?topic=t", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?token=supersecrettoken", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"?topic=t&token=supersecrettoken", nil)
	require.NoError(t, err)
	conn.Close()
}

func TestPublishEndpoint(t *testing.T) {
	h := hub.New()
	var (
		mu  sync.Mutex
		got []any
	)
	_, _ = h.Subscribe("doorbell", hub.SubscriberFunc(func(_ context.Context, n hub.Notification) error {
		mu.Lock()
		got = append(got, n.Payload)
		mu.Unlock()
		return nil
	}))
	_, _ = h.Subscribe("doorbell", hub.NamedSubscriber("grumpy", func(context.Context, hub.Notification) error {
		return assert.AnError
	}))

	s := httptest.NewServer(New(h, log.NewNop()).Handler())
	defer s.Close()

	resp, err := http.Post(s.URL+"/publish?topic=doorbell", "application/json", strings.NewReader(`"ding"`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body publishResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "doorbell", body.Topic)
	require.Len(t, body.Failures, 1)
	assert.Contains(t, body.Failures[0], "grumpy")
	mu.Lock()
	assert.Equal(t, []any{"ding"}, got)
	mu.Unlock()

	resp2, err := http.Get(s.URL + "/publish?topic=doorbell")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestTopicsEndpoint(t *testing.T) {
	h := hub.New()
	_, _ = h.Subscribe("a", hub.SubscriberFunc(func(context.Context, hub.Notification) error { return nil }))
	s := httptest.NewServer(New(h, log.NewNop()).Handler())
	defer s.Close()

	resp, err := http.Get(s.URL + "/topics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var topics []hub.TopicInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&topics))
	assert.Equal(t, []hub.TopicInfo{{Name: "a", Subscribers: 1}}, topics)
}

func TestStartStop(t *testing.T) {
	srv := New(hub.New(), log.NewNop())
	addr, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)

	_, err = srv.Start("127.0.0.1:0")
	assert.ErrorIs(t, err, ErrServerAlreadyRunning)

	resp, err := http.Get("http://" + addr + "/topics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.ErrorIs(t, srv.Stop(ctx), ErrServerNotRunning)
}
