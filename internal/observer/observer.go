// Package observer is the renderer collaborator of the simulation. It keeps
// the latest snapshot, serves it over a small HTTP API and streams one JSON
// frame per tick to websocket clients, together with the show/hide hints
// typed at the console.
package observer

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/engine"
)

// Hint is the latest show/hide request for one entity.
type Hint struct {
	Entity    command.Entity `json:"entity"`
	ID        int            `json:"id"`
	Show      bool           `json:"show"`
	Follow    bool           `json:"follow"`
	Permanent bool           `json:"permanent"`
}

// Frame is what websocket clients receive each tick.
type Frame struct {
	Snapshot engine.Snapshot `json:"snapshot"`
	Hints    []Hint          `json:"hints"`
}

type hintKey struct {
	entity command.Entity
	id     int
}

// Observer implements engine.Renderer.
type Observer struct {
	logger *log.Logger
	hub    *hub
	router *mux.Router

	mu     sync.RWMutex
	latest *engine.Snapshot
	hints  map[hintKey]Hint
}

// New returns an observer with no frame yet and its websocket hub running.
func New(logger *log.Logger) *Observer {
	logger = logger.WithPrefix("observer")
	o := &Observer{
		logger: logger,
		hub:    newHub(logger),
		router: mux.NewRouter(),
		hints:  make(map[hintKey]Hint),
	}
	o.routes()
	return o
}

func (o *Observer) routes() {
	api := o.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", o.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/hints", o.handleHints).Methods(http.MethodGet)
	api.HandleFunc("/stations/{id:[0-9]+}", o.handleStation).Methods(http.MethodGet)
	api.HandleFunc("/pods/{id:[0-9]+}", o.handlePod).Methods(http.MethodGet)
	api.HandleFunc("/people/{id:[0-9]+}", o.handlePerson).Methods(http.MethodGet)
	o.router.HandleFunc("/ws", o.handleWS)
}

// Router returns the HTTP handler of the observer.
func (o *Observer) Router() *mux.Router { return o.router }

// Frame stores s and broadcasts it to websocket clients.
func (o *Observer) Frame(s engine.Snapshot) {
	o.mu.Lock()
	o.latest = &s
	frame := Frame{Snapshot: s, Hints: o.hintList()}
	o.mu.Unlock()

	data, err := json.Marshal(frame)
	if err != nil {
		o.logger.Error("marshaling frame", "err", err)
		return
	}
	o.hub.send(data)
}

// Visibility records a show/hide hint. A non-permanent hide forgets the
// entity instead of pinning it hidden.
func (o *Observer) Visibility(v command.Visibility) {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := hintKey{v.Entity, v.ID}
	if !v.Show && !v.Permanent {
		delete(o.hints, k)
		return
	}
	o.hints[k] = Hint{Entity: v.Entity, ID: v.ID, Show: v.Show, Follow: v.Follow, Permanent: v.Permanent}
}

// hintList returns the hints sorted by entity and id. o.mu must be held.
func (o *Observer) hintList() []Hint {
	out := make([]Hint, 0, len(o.hints))
	for _, h := range o.hints {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b Hint) int {
		if c := cmp.Compare(a.Entity, b.Entity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// ListenAndServe serves the observer on addr until ctx is done.
func (o *Observer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: o.router, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	o.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		o.hub.close()
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	o.hub.close()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (o *Observer) snapshot() (*engine.Snapshot, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest, o.latest != nil
}

func (o *Observer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := o.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no tick simulated yet")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (o *Observer) handleHints(w http.ResponseWriter, r *http.Request) {
	o.mu.RLock()
	hints := o.hintList()
	o.mu.RUnlock()
	writeJSON(w, http.StatusOK, hints)
}

// lookup serves the element of the latest snapshot whose id matches the
// {id} route variable.
func lookup[T any](o *Observer, w http.ResponseWriter, r *http.Request, pick func(*engine.Snapshot) []T, id func(T) int) {
	want, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	s, ok := o.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no tick simulated yet")
		return
	}
	for _, item := range pick(s) {
		if id(item) == want {
			writeJSON(w, http.StatusOK, item)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not found")
}

func (o *Observer) handleStation(w http.ResponseWriter, r *http.Request) {
	lookup(o, w, r,
		func(s *engine.Snapshot) []engine.StationReport { return s.Stations },
		func(st engine.StationReport) int { return st.ID })
}

func (o *Observer) handlePod(w http.ResponseWriter, r *http.Request) {
	lookup(o, w, r,
		func(s *engine.Snapshot) []engine.PodReport { return s.Pods },
		func(p engine.PodReport) int { return p.ID })
}

func (o *Observer) handlePerson(w http.ResponseWriter, r *http.Request) {
	lookup(o, w, r,
		func(s *engine.Snapshot) []engine.PersonReport { return s.People },
		func(p engine.PersonReport) int { return p.ID })
}

func (o *Observer) handleWS(w http.ResponseWriter, r *http.Request) {
	var first []byte
	o.mu.RLock()
	if o.latest != nil {
		first, _ = json.Marshal(Frame{Snapshot: *o.latest, Hints: o.hintList()})
	}
	o.mu.RUnlock()
	o.hub.serve(w, r, first)
}

// Close stops the websocket hub.
func (o *Observer) Close() { o.hub.close() }
