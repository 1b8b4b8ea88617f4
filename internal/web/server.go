// Package web serves the cabin monitor's status page, command endpoints,
// JSON status, metrics, and a live WebSocket stream.
package web

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/cabin-monitor/internal/device"
	"github.com/sweeney/cabin-monitor/internal/metrics"
	"github.com/sweeney/cabin-monitor/internal/status"
)

// DefaultStreamInterval is how often /ws pushes a status message.
const DefaultStreamInterval = time.Second

// Submitter hands a request line to the control loop and returns the state
// after it was processed.
type Submitter interface {
	Submit(ctx context.Context, line string) (device.Snapshot, error)
}

// Options configures a Server.
type Options struct {
	Addr           string
	Inbox          Submitter
	Tracker        *status.Tracker
	Pool           *BufferPool
	Metrics        *metrics.Collector
	Log            *zap.Logger
	StreamInterval time.Duration
	PongWait       time.Duration // how long /ws waits for a pong; zero means 60s
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	inbox      Submitter
	tracker    *status.Tracker
	pool       *BufferPool
	metrics    *metrics.Collector
	log        *zap.Logger
	interval   time.Duration
	pongWait   time.Duration

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a Server. Every path without a dedicated route is treated as
// a command request.
func New(opts Options) *Server {
	s := &Server{
		inbox:    opts.Inbox,
		tracker:  opts.Tracker,
		pool:     opts.Pool,
		metrics:  opts.Metrics,
		log:      opts.Log,
		interval: opts.StreamInterval,
		pongWait: opts.PongWait,
		quit:     make(chan struct{}),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.interval <= 0 {
		s.interval = DefaultStreamInterval
	}
	if s.pongWait <= 0 {
		s.pongWait = wsPongWait
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCommand)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/ws", s.handleStream)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on the given listener. It blocks until the
// server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server and ends live streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.quitOnce.Do(func() { close(s.quit) })
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	buf, err := s.pool.Get()
	if err != nil {
		s.metrics.AllocationFailed()
		s.log.Warn("request rejected", zap.String("uri", r.RequestURI), zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer buf.Release()

	buf.WriteString(r.Method)
	buf.WriteString(" ")
	buf.WriteString(r.RequestURI)
	buf.WriteString(" ")
	buf.WriteString(r.Proto)

	snap, err := s.inbox.Submit(r.Context(), buf.String())
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; nothing to answer.
			return
		}
		s.log.Warn("control loop unavailable", zap.Error(err))
		http.Error(w, "control loop unavailable", http.StatusServiceUnavailable)
		return
	}

	doc, err := RenderDocument(snap)
	if err != nil {
		s.log.Error("render status page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
