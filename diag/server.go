// Package diag exposes the retained entries of a ringlog.Facade over HTTP: a
// JSON snapshot endpoint and a websocket pushing fresh snapshots whenever new
// records arrive.
package diag

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/abyssdigger/ringlog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
)

// How often websocket connections check the facade version.
var PollInterval = 250 * time.Millisecond

const writeWait = 2 * time.Second

// Server serves the entries of one facade.
//
//	GET /entries?level=warn&target=net   snapshot, gzip encoded on request
//	GET /ws?level=warn&target=net        init snapshot then one per change
//	GET /health
type Server struct {
	facade   *ringlog.Facade
	log      *ringlog.LogClient
	upgrader websocket.Upgrader
	now      func() time.Time
}

// EntriesResponse is the body of /entries and of every websocket message.
type EntriesResponse struct {
	Type    string          `json:"type,omitempty"` // "init" or "update" on websockets
	Version uint64          `json:"version"`
	Count   int             `json:"count"`
	Entries []ringlog.Entry `json:"entries"`
}

// ErrorResponse is written with non-2xx statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewServer returns a server over f. It logs through f with target
// "ringlog::diag".
func NewServer(f *ringlog.Facade) *Server {
	return &Server{
		facade: f,
		log:    f.NewClient("ringlog::diag"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// RegisterRoutes adds the server routes to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /entries", gzhttp.GzipHandler(http.HandlerFunc(s.HandleEntries)))
	mux.HandleFunc("GET /ws", s.HandleWebsocket)
	mux.HandleFunc("GET /health", s.HandleHealth)
}

// Handler returns a mux with the server routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// query selects entries of a snapshot.
type query struct {
	minLevel ringlog.LogLevel // entries below are skipped, LVL_UNKNOWN for all
	target   string           // target prefix, empty for all
}

func parseQuery(r *http.Request) (query, error) {
	var q query
	if name := r.URL.Query().Get("level"); name != "" {
		level, err := ringlog.ParseLevel(name)
		if err != nil {
			return q, err
		}
		q.minLevel = level
	}
	q.target = r.URL.Query().Get("target")
	return q, nil
}

func (q query) apply(entries []ringlog.Entry) []ringlog.Entry {
	if q.minLevel == ringlog.LVL_UNKNOWN && q.target == "" {
		return entries
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Level >= q.minLevel && strings.HasPrefix(e.Target, q.target) {
			kept = append(kept, e)
		}
	}
	return kept
}

// snapshot reads the version first: a record landing in between shows up in
// the entries and triggers one more (identical) push later, never a lost one.
func (s *Server) snapshot(q query, kind string) EntriesResponse {
	version := s.facade.Version()
	entries := q.apply(s.facade.Entries())
	if entries == nil {
		entries = []ringlog.Entry{}
	}
	return EntriesResponse{Type: kind, Version: version, Count: len(entries), Entries: entries}
}

func (s *Server) HandleEntries(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_level", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.snapshot(q, ""))
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.facade.Version(),
		"capacity": s.facade.Capacity(),
		"time":     s.now().UTC(),
	})
}

// HandleWebsocket sends an "init" snapshot, then an "update" snapshot each
// time the facade version changes. The connection ends when the client goes
// away or a write fails.
func (s *Server) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_level", err.Error())
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Logf(ringlog.LVL_WARN, "websocket upgrade failed: %v", err)
		return
	}
	id := uuid.NewString()
	s.log.Logf(ringlog.LVL_DEBUG, "websocket %s connected from %s", id, r.RemoteAddr)
	defer func() {
		conn.Close()
		s.log.Logf(ringlog.LVL_DEBUG, "websocket %s closed", id)
	}()

	// reader goroutine notices the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	msg := s.snapshot(q, "init")
	if err := s.push(conn, msg); err != nil {
		s.log.Logf(ringlog.LVL_DEBUG, "websocket %s: %v", id, err)
		return
	}
	last := msg.Version

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if s.facade.Version() == last {
				continue
			}
			msg := s.snapshot(q, "update")
			if err := s.push(conn, msg); err != nil {
				s.log.Logf(ringlog.LVL_DEBUG, "websocket %s: %v", id, err)
				return
			}
			last = msg.Version
		}
	}
}

func (s *Server) push(conn *websocket.Conn, msg EntriesResponse) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(msg)
	_ = conn.SetWriteDeadline(time.Time{})
	return err
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Logf(ringlog.LVL_WARN, "error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: error, Message: message})
}
