// Package server exposes the collections of a manager over HTTP and pushes
// live snapshots over websockets.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/manager"
	"github.com/yndd/dinesync/transport"
)

const (
	defaultAddr         = ":8080"
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
	shutdownTimeout     = 5 * time.Second
)

type Config struct {
	Addr           string        `yaml:"addr,omitempty"`
	AllowedOrigins []string      `yaml:"allowed-origins,omitempty"`
	PingInterval   time.Duration `yaml:"ping-interval,omitempty"`
	// Keys are listed by GET /collections next to the ones the transport
	// knows about.
	Keys []string `yaml:"keys,omitempty"`
}

// Server holds the manager and registers routes.
type Server struct {
	Config
	m        *manager.Manager
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	logger   logging.Logger
}

func New(m *manager.Manager, c Config, l logging.Logger) *Server {
	if l == nil {
		l = logging.NewNopLogger()
	}
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.Keys == nil {
		c.Keys = transport.DefaultKeys
	}
	s := &Server{
		Config: c,
		m:      m,
		mux:    http.NewServeMux(),
		logger: l,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.routes()
	return s
}

// ServeHTTP serves the routes behind the CORS middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.cors(s.mux).ServeHTTP(w, r)
}

// Run serves on Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.health)
	s.mux.HandleFunc("GET /collections", s.listCollections)
	s.mux.HandleFunc("GET /collections/{key}", s.getCollection)
	s.mux.HandleFunc("PUT /collections/{key}", s.putCollection)
	s.mux.HandleFunc("POST /collections/{key}/items", s.addItem)
	s.mux.HandleFunc("PATCH /collections/{key}/items/{id}", s.updateItem)
	s.mux.HandleFunc("DELETE /collections/{key}/items/{id}", s.removeItem)
	s.mux.HandleFunc("GET /collections/{key}/watch", s.watch)
	s.mux.HandleFunc("POST /resync", s.resync)
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// key returns the collection key of the request, rejecting trigger entries.
func key(w http.ResponseWriter, r *http.Request) (string, bool) {
	k := r.PathValue("key")
	if k == "" || collection.IsTrigger(k) {
		writeError(w, http.StatusBadRequest, "invalid collection key")
		return "", false
	}
	return k, true
}

func identityField(r *http.Request) string {
	if f := r.URL.Query().Get("field"); f != "" {
		return f
	}
	return collection.DefaultIdentityField
}

// ---------- handlers ----------

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	keys := map[string]struct{}{}
	for _, k := range s.Keys {
		keys[k] = struct{}{}
	}
	if t := s.m.Transport(); t != nil {
		for _, k := range t.KnownKeys() {
			keys[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(map[string]int, len(names))
	for _, k := range names {
		c, _ := s.m.GetData(k)
		out[k] = len(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	k, ok := key(w, r)
	if !ok {
		return
	}
	c, ok := s.m.GetData(k)
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) putCollection(w http.ResponseWriter, r *http.Request) {
	k, ok := key(w, r)
	if !ok {
		return
	}
	var c collection.Collection
	if err := readJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON array: "+err.Error())
		return
	}
	if c == nil {
		c = collection.Collection{}
	}
	s.m.SetData(k, c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	k, ok := key(w, r)
	if !ok {
		return
	}
	var rec collection.Record
	if err := readJSON(r, &rec); err != nil || rec == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON object")
		return
	}
	writeJSON(w, http.StatusCreated, s.m.AddArrayItem(k, rec))
}

// updateItem merges the request body into every matching record.
func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	k, ok := key(w, r)
	if !ok {
		return
	}
	id, field := r.PathValue("id"), identityField(r)
	var patch collection.Record
	if err := readJSON(r, &patch); err != nil || patch == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON object")
		return
	}
	c, _ := s.m.GetData(k)
	found := false
	for _, rec := range c {
		if rec.Matches(field, id) {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	updated := s.m.UpdateArrayItem(k, id, func(rec collection.Record) collection.Record {
		for f, v := range patch {
			rec[f] = v
		}
		return rec
	}, field)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	k, ok := key(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.m.RemoveArrayItem(k, r.PathValue("id"), identityField(r)))
}

func (s *Server) resync(w http.ResponseWriter, r *http.Request) {
	s.m.ForceSyncAll()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "resync requested"})
}

// ---------- CORS ----------

func (s *Server) allowAll() bool {
	return len(s.AllowedOrigins) == 1 && s.AllowedOrigins[0] == "*"
}

func (s *Server) originAllowed(origin string) bool {
	if s.allowAll() {
		return true
	}
	for _, o := range s.AllowedOrigins {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.originAllowed(origin)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.allowAll() {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
