// SPDX-License-Identifier: MIT
/*
Package api serves the HTTP control API. Requests only write the tunables
store; the renderer picks the changes up on its next settings refresh.

	GET      /api/state       renderer state, including the current energy
	GET      /api/modes       modes, filters and their variables
	GET|POST /api/setmode     ?mode=stack&speed=2&concurrent=3
	GET|POST /api/setfilter   ?filter=hex&gradient=[[0,"#f00"],[1,"#00f"]]
	GET|POST /api/enable      ?enabled=false
	GET      /api/tunables    current values of every variable
	POST     /api/tunables    ?energy_brightness=true
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"ledstrip/internal/effects"
	"ledstrip/internal/gradient"
	"ledstrip/internal/log"
	"ledstrip/internal/render"
	"ledstrip/internal/store"
)

var logger = log.For("api")

// StateFunc reports the renderer's latest state.
type StateFunc func() render.State

// Server is the control API.
type Server struct {
	addr   string
	store  store.Store
	reg    *effects.Registry
	state  StateFunc
	server *http.Server
	done   chan struct{}
}

// NewServer creates a server for addr. Nothing listens until Start.
func NewServer(addr string, st store.Store, reg *effects.Registry, state StateFunc) *Server {
	s := &Server{
		addr:  addr,
		store: st,
		reg:   reg,
		state: state,
		done:  make(chan struct{}),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler routes every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/modes", s.handleModes)
	mux.HandleFunc("/api/setmode", s.handleSetMode)
	mux.HandleFunc("/api/setfilter", s.handleSetFilter)
	mux.HandleFunc("/api/enable", s.handleEnable)
	mux.HandleFunc("GET /api/tunables", s.handleGetTunables)
	mux.HandleFunc("POST /api/tunables", s.handleSetTunables)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	logger.Infof("control API listening on %s", ln.Addr())
	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("control API stopped: %v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("failed to encode response: %v", err)
	}
}

func writeResponse(w http.ResponseWriter, r Response) {
	writeJSON(w, r.Status.HTTPCode(), r.Body)
}

// params merges the query string and a form body.
func params(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
		return false
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewCatalog(s.reg))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	if !params(w, r) {
		return
	}
	writeResponse(w, SetEffect(s.store, ModeEffect(s.reg), r.Form))
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	if !params(w, r) {
		return
	}
	writeResponse(w, SetEffect(s.store, FilterEffect(s.reg), r.Form))
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	if !params(w, r) {
		return
	}
	res := effects.BoolVar{Name: "enabled"}.Validate(r.Form["enabled"])
	if res.Err != nil {
		writeResponse(w, failure(StatusClientError, "%s", res.Err))
		return
	}
	if err := store.Put(s.store, store.KeyEnabled, res.Value); err != nil {
		writeResponse(w, failure(StatusServerError, "failed to store enabled: %v", err))
		return
	}
	logger.Infof("enabled set to %v", res.Value)
	writeResponse(w, success(map[string]any{"enabled": res.Value}))
}

func (s *Server) handleSetTunables(w http.ResponseWriter, r *http.Request) {
	if !params(w, r) {
		return
	}
	writeResponse(w, SetTunables(s.store, render.Tunables(), r.Form))
}

func (s *Server) handleGetTunables(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot()
	if err != nil {
		writeResponse(w, failure(StatusServerError, "failed to read tunables: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, Values(snap, s.reg))
}

// Values decodes the selection, the enable flag and every known variable
// from snap, typed by its validator. Missing keys are left out.
func Values(snap store.Snapshot, reg *effects.Registry) map[string]any {
	out := make(map[string]any)
	for _, key := range []string{store.KeyMode, store.KeyFilter} {
		var v string
		if snap.Decode(key, &v) == nil {
			out[key] = v
		}
	}
	var enabled bool
	if snap.Decode(store.KeyEnabled, &enabled) == nil {
		out[store.KeyEnabled] = enabled
	}

	specs := render.Tunables()
	for _, name := range reg.ModeNames() {
		m, _ := reg.Mode(name)
		specs = append(specs, m.Vars()...)
	}
	for _, name := range reg.FilterNames() {
		f, _ := reg.Filter(name)
		specs = append(specs, f.Vars()...)
	}
	for _, spec := range specs {
		if v, ok := decodeTyped(snap, spec); ok {
			out[spec.Key] = v
		}
	}
	return out
}

func decodeTyped(snap store.Snapshot, spec effects.VarSpec) (any, bool) {
	switch spec.Validator.Type() {
	case "int":
		return decodeAs[int](snap, spec.Key)
	case "float":
		return decodeAs[float64](snap, spec.Key)
	case "bool":
		return decodeAs[bool](snap, spec.Key)
	case "gradient":
		return decodeAs[gradient.Gradient](snap, spec.Key)
	}
	return decodeAs[any](snap, spec.Key)
}

func decodeAs[T any](snap store.Snapshot, key string) (any, bool) {
	var v T
	if err := snap.Decode(key, &v); err != nil {
		return nil, false
	}
	return v, true
}
