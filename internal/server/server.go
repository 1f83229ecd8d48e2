package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/composer/internal/core/events/hub"
	"github.com/zeusync/composer/internal/core/observability/log"
)

// Server exposes a notification hub over HTTP:
//
//	GET  /ws?topic=name   websocket stream of notifications published on topic
//	POST /publish?topic=  publish the JSON request body on topic
//	GET  /topics          JSON list of topics with subscriber counts
type Server struct {
	hub      *hub.Hub
	logger   log.Log
	token    string
	upgrader websocket.Upgrader

	writeTimeout time.Duration

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
}

type Option func(*Server)

// WithToken requires every request to carry ?token=<token>.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

func New(h *hub.Hub, logger log.Log, opts ...Option) *Server {
	s := &Server{
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.authorize(s.handleWebSocket))
	mux.HandleFunc("/publish", s.authorize(s.handlePublish))
	mux.HandleFunc("/topics", s.authorize(s.handleTopics))
	return mux
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr uses port 0.
func (s *Server) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http != nil {
		return "", ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.listener = ln
	s.http = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("notification server stopped", log.Error(err))
		}
	}(s.http)

	s.logger.Info("notification server listening", log.String("addr", ln.Addr().String()))
	return ln.Addr().String(), nil
}

// Stop shuts the listener down gracefully. Hijacked websocket connections
// are not tracked by net/http and close when their read loop ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.http = nil
	s.mu.Unlock()
	if srv == nil {
		return ErrServerNotRunning
	}
	return srv.Shutdown(ctx)
}

func (s *Server) authorize(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.URL.Query().Get("token") != s.token {
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		http.Error(w, ErrMissingTopic.Error(), http.StatusBadRequest)
		return
	}

	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	resp := publishResponse{Topic: topic}
	if err := s.hub.Publish(r.Context(), topic, payload); err != nil {
		for _, f := range hub.Failures(err) {
			resp.Failures = append(resp.Failures, f.Error())
		}
	}
	writeJSON(w, http.StatusAccepted, resp)
}

type publishResponse struct {
	Topic    string   `json:"topic"`
	Failures []string `json:"failures,omitempty"`
}

func (s *Server) handleTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Topics())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
