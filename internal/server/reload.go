package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"git.home.luguber.info/inful/lithos/internal/metrics"
)

// ReloadPort is the fixed livereload port browsers expect.
const ReloadPort = 35729

// Protocol frames of the livereload wire format. Clients get a hello on
// connect and a reload on every pulse.
const (
	helloFrame  = `{"command":"hello","protocols":["http://livereload.com/protocols/official-7"],"serverName":"lithos"}`
	reloadFrame = `{"command":"reload","path":"/"}`
)

// ReloadHub fans a rebuild pulse out to every connected browser over
// websocket. Clients that cannot keep up miss pulses instead of blocking
// the producer.
type ReloadHub struct {
	recorder metrics.Recorder

	mu      sync.RWMutex
	clients map[string]chan struct{}
}

// NewReloadHub returns an empty hub.
func NewReloadHub(rec metrics.Recorder) *ReloadHub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &ReloadHub{recorder: rec, clients: map[string]chan struct{}{}}
}

// Pulse notifies every connected client that the site changed.
func (h *ReloadHub) Pulse() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.recorder.IncReloadBroadcast()
	slog.Debug("reload pulse", "clients", len(h.clients))
}

// ClientCount returns the number of connected clients.
func (h *ReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *ReloadHub) subscribe() (string, chan struct{}) {
	id := uuid.NewString()
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.clients[id] = ch
	n := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetReloadClients(n)
	return id, ch
}

func (h *ReloadHub) unsubscribe(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	n := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetReloadClients(n)
}

// Handler exposes the hub as a websocket endpoint.
func (h *ReloadHub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *ReloadHub) serve(ws *websocket.Conn) {
	defer ws.Close()

	if err := websocket.Message.Send(ws, helloFrame); err != nil {
		slog.Debug("livereload hello failed", "error", err)
		return
	}

	id, pulses := h.subscribe()
	defer h.unsubscribe(id)
	slog.Debug("livereload client connected", "client", id)

	// Drain the read side so we notice when the browser goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			slog.Debug("livereload client disconnected", "client", id)
			return
		case <-pulses:
			if err := websocket.Message.Send(ws, reloadFrame); err != nil {
				slog.Debug("livereload send failed, dropping client", "client", id, "error", err)
				return
			}
		}
	}
}

// ServeReload runs the dedicated livereload listener until ctx is
// cancelled. It binds the same host as the document server but always on
// ReloadPort.
func ServeReload(ctx context.Context, host string, hub *ReloadHub) error {
	mux := http.NewServeMux()
	mux.Handle("/livereload", hub.Handler())

	srv := &http.Server{
		Addr: net.JoinHostPort(host, strconv.Itoa(ReloadPort)),
		// Websocket connections are long-lived; no read/write timeouts.
		Handler:     mux,
		IdleTimeout: 5 * time.Minute,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("livereload listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
