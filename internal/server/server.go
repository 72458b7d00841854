// Package server exposes the decision engine over HTTP.
//
// Routes:
//   - GET  /health, GET /presets
//   - POST /evaluate     board features and transient score of a state
//   - POST /best-move    the chosen placement, the next state, optionally every candidate
//   - POST /render       PNG of a state, optionally with the chosen placement drawn in
//   - GET|PUT|DELETE /profiles/{name}, GET /profiles
//   - GET|DELETE /stats
//   - GET  /ws           live stream of decisions
//
// Profiles and statistics need a storage backend; without one those
// routes answer 503.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/eval"
	"github.com/hailam/tetrisplay/internal/render"
	"github.com/hailam/tetrisplay/internal/storage"
)

const maxBody = 1 << 20

// Server bundles the router, the shared engine and the optional store.
type Server struct {
	r       *chi.Mux
	engine  *engine.Engine
	store   *storage.Storage
	hub     *Hub
	workers int
}

// New constructs a Server, installs middleware and registers routes.
// store may be nil.
func New(eng *engine.Engine, store *storage.Storage, workers int) *Server {
	s := &Server{r: chi.NewRouter(), engine: eng, store: store, hub: NewHub(), workers: workers}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/presets", s.handlePresets)
	s.r.Post("/evaluate", s.handleEvaluate)
	s.r.Post("/best-move", s.handleBestMove)
	s.r.Post("/render", s.handleRender)

	s.r.Route("/profiles", func(r chi.Router) {
		r.Use(s.requireStore)
		r.Get("/", s.handleListProfiles)
		r.Get("/{name}", s.handleGetProfile)
		r.Put("/{name}", s.handlePutProfile)
		r.Delete("/{name}", s.handleDeleteProfile)
	})
	s.r.With(s.requireStore).Get("/stats", s.handleStats)
	s.r.With(s.requireStore).Delete("/stats", s.handleResetStats)

	s.r.Get("/ws", s.hub.serveWS)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})
	return s
}

// Router exposes the router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Start runs the hub and serves HTTP on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "no_storage", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorRes struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorRes{Error: code, Detail: detail})
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// stateReq is an input.json document plus optional scoring overrides.
type stateReq struct {
	board.StateJSON
	Weights json.RawMessage `json:"weights,omitempty"` // applied over the profile or engine weights
	Profile string          `json:"profile,omitempty"`
	All     bool            `json:"all,omitempty"` // include every candidate
}

func decodeState(r *http.Request) (stateReq, *board.State, error) {
	var req stateReq
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		return req, nil, err
	}
	st, err := req.StateJSON.State()
	return req, st, err
}

// engineFor returns the shared engine, or a throwaway one when the
// request carries its own weights.
func (s *Server) engineFor(req stateReq) (*engine.Engine, error) {
	if req.Profile == "" && len(req.Weights) == 0 {
		return s.engine, nil
	}
	w := s.engine.Weights()
	if req.Profile != "" {
		if s.store == nil {
			return nil, errors.New("profiles need storage")
		}
		p, err := s.store.LoadProfile(req.Profile)
		if err != nil {
			return nil, err
		}
		w = p.Weights
	}
	if len(req.Weights) > 0 {
		var err error
		if w, err = eval.ParseWeightsOver(w, req.Weights); err != nil {
			return nil, err
		}
	}
	return engine.NewEngine(w, engine.Options{Workers: s.workers}), nil
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]eval.Weights)
	for _, name := range eval.PresetNames() {
		out[name], _ = eval.Preset(name)
	}
	writeJSON(w, out)
}

type evaluateRes struct {
	Transient  int `json:"transient"`
	TslotBonus int `json:"tslot_bonus"`
	ChainSteps int `json:"chain_steps"`
	MaxHeight  int `json:"max_height"`
	Bumpiness  int `json:"bumpiness"`
	Cavities   int `json:"cavities"`
	Overhangs  int `json:"overhangs"`
	Covered    int `json:"covered"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, st, err := decodeState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_state", err.Error())
		return
	}
	eng, err := s.engineFor(req)
	if err != nil {
		s.weightsError(w, err)
		return
	}

	b := st.Board
	wts := eng.Weights()
	res := evaluateRes{Transient: eng.Evaluate(b, board.LockResult{}, 0, board.NoPiece).Transient}
	res.TslotBonus, res.ChainSteps = wts.TslotBonus(b)
	res.MaxHeight = b.MaxHeight()
	heights := b.ColumnHeights()
	res.Bumpiness, _ = eval.Bumpiness(heights, eval.LowestColumn(heights))
	res.Cavities, res.Overhangs = eval.CavitiesAndOverhangs(b)
	res.Covered, _ = eval.CoveredCells(b)
	writeJSON(w, res)
}

type bestMoveRes struct {
	engine.Decision
	Next       board.StateJSON   `json:"next"`
	Candidates []engine.Decision `json:"candidates,omitempty"`
}

func (s *Server) handleBestMove(w http.ResponseWriter, r *http.Request) {
	req, st, err := decodeState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_state", err.Error())
		return
	}
	eng, err := s.engineFor(req)
	if err != nil {
		s.weightsError(w, err)
		return
	}

	best, all, err := eng.Search(r.Context(), st.Board, st.Current)
	if err != nil {
		s.searchError(w, err)
		return
	}

	d := engine.NewDecision(best)
	next := best.Board.Clone()
	nextState := board.State{Board: next, Current: next.PopNext()}
	res := bestMoveRes{Decision: d, Next: nextState.ToJSON()}
	if req.All {
		res.Candidates = make([]engine.Decision, len(all))
		for i, c := range all {
			res.Candidates[i] = engine.NewDecision(c)
		}
	}

	s.hub.Publish("decision", d)
	if s.store != nil {
		rec := storage.DecisionRecord{
			Kind:         best.Lock.PlacementKind.String(),
			Lines:        len(best.Lock.ClearedLines),
			Tspin:        best.Lock.PlacementKind.IsTspin(),
			PerfectClear: best.Lock.PerfectClear,
			UsedHold:     best.UsedHold,
			Total:        best.Score.Total(),
		}
		if err := s.store.RecordDecision(rec); err != nil {
			log.Warn().Err(err).Msg("record decision")
		}
	}
	writeJSON(w, res)
}

// handleRender draws the posted state. Query: width (pixels, default the
// natural size), cell (pixels per cell), best (overlay the chosen move).
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, st, err := decodeState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_state", err.Error())
		return
	}
	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("width"))
	cell, _ := strconv.Atoi(q.Get("cell"))
	opts := render.Options{Cell: cell}

	if best, _ := strconv.ParseBool(q.Get("best")); best {
		eng, err := s.engineFor(req)
		if err != nil {
			s.weightsError(w, err)
			return
		}
		chosen, _, err := eng.Search(r.Context(), st.Board, st.Current)
		if err != nil {
			s.searchError(w, err)
			return
		}
		loc := chosen.Placement.Location
		opts.Piece = &loc
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, st.Board, opts, width); err != nil {
		log.Error().Err(err).Msg("render")
		writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) weightsError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile_not_found", err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "bad_weights", err.Error())
}

func (s *Server) searchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNoPlacements):
		writeError(w, http.StatusUnprocessableEntity, "no_placements", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "timeout", err.Error())
	default:
		log.Error().Err(err).Msg("search")
		writeError(w, http.StatusInternalServerError, "search_failed", err.Error())
	}
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListProfiles()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string][]string{"profiles": names})
}

func (s *Server) profileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found", err.Error())
	case errors.Is(err, storage.ErrBadProfileName):
		writeError(w, http.StatusBadRequest, "bad_name", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "db_error", err.Error())
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.LoadProfile(chi.URLParam(r, "name"))
	if err != nil {
		s.profileError(w, err)
		return
	}
	writeJSON(w, p)
}

// handlePutProfile stores the posted weights, applied over the preset
// named by ?base= (default "default").
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	baseName := r.URL.Query().Get("base")
	if baseName == "" {
		baseName = "default"
	}
	base, err := eval.Preset(baseName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_preset", err.Error())
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_body", err.Error())
		return
	}
	wts, err := eval.ParseWeightsOver(base, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_weights", err.Error())
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.store.SaveProfile(name, wts); err != nil {
		s.profileError(w, err)
		return
	}
	p, err := s.store.LoadProfile(name)
	if err != nil {
		s.profileError(w, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProfile(chi.URLParam(r, "name")); err != nil {
		s.profileError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

type statsRes struct {
	*storage.DecisionStats
	AverageScore float64 `json:"average_score"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.LoadStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, statsRes{DecisionStats: stats, AverageScore: stats.AverageScore()})
}

func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetStats(); err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}
