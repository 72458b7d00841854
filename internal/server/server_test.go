package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/eval"
	"github.com/hailam/tetrisplay/internal/storage"
)

const tspinState = `{"piece":"T","field":[[1,1,1,1,0,1,1,1,1,1],[1,1,1,0,0,0,1,1,1,1],[0,0,0,1,0,0,0,0,0,0]],` +
	`"bag":["I","O","T","L","J","S","Z"],"hold":null,"next":[]`

func newServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	var st *storage.Storage
	if withStore {
		var err error
		st, err = storage.NewStorage(t.TempDir())
		if err != nil {
			t.Fatalf("NewStorage: %v", err)
		}
		t.Cleanup(func() { st.Close() })
	}
	return New(engine.NewEngine(eval.Default(), engine.Options{Workers: 2, CacheMB: 1}), st, 2)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndPresets(t *testing.T) {
	s := newServer(t, false)
	if rec := do(t, s, "GET", "/health", ""); rec.Code != 200 || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body)
	}

	rec := do(t, s, "GET", "/presets", "")
	var presets map[string]eval.Weights
	decode(t, rec, &presets)
	if len(presets) != 2 || presets["fast"].Tspin3 != eval.Fast().Tspin3 {
		t.Errorf("presets = %v", presets)
	}

	rec = do(t, s, "GET", "/nope", "")
	if rec.Code != 404 || !strings.Contains(rec.Body.String(), "not_found") {
		t.Errorf("404 = %d %s", rec.Code, rec.Body)
	}
}

func TestBestMove(t *testing.T) {
	s := newServer(t, true)
	rec := do(t, s, "POST", "/best-move", tspinState+`,"all":true}`)
	if rec.Code != 200 {
		t.Fatalf("best-move = %d %s", rec.Code, rec.Body)
	}

	var res struct {
		engine.Decision
		Next struct {
			Piece string    `json:"piece"`
			Field [][]uint8 `json:"field"`
			B2B   bool      `json:"b2b"`
		} `json:"next"`
		Candidates []engine.Decision `json:"candidates"`
	}
	decode(t, rec, &res)
	if res.PlacementKind != "Tspin2" || res.LinesCleared != 2 {
		t.Errorf("decision %+v", res.Decision)
	}
	if res.Next.Field[0][3] != 1 || res.Next.Field[1][3] != 0 || !res.Next.B2B {
		t.Errorf("next state %+v", res.Next)
	}
	if res.Next.Piece != "-" {
		t.Errorf("next piece %q, want - for an empty queue", res.Next.Piece)
	}
	if len(res.Candidates) == 0 {
		t.Error("no candidates listed")
	}

	rec = do(t, s, "GET", "/stats", "")
	var stats struct {
		Decisions    int     `json:"decisions"`
		Tspins       int     `json:"tspins"`
		LinesCleared int     `json:"lines_cleared"`
		AverageScore float64 `json:"average_score"`
	}
	decode(t, rec, &stats)
	if stats.Decisions != 1 || stats.Tspins != 1 || stats.LinesCleared != 2 || stats.AverageScore != float64(res.Total) {
		t.Errorf("stats = %+v", stats)
	}

	if rec := do(t, s, "DELETE", "/stats", ""); rec.Code != 200 {
		t.Errorf("reset stats = %d", rec.Code)
	}
}

func TestBestMoveErrors(t *testing.T) {
	s := newServer(t, false)
	full := `{"piece":"T","field":[` + strings.Repeat(`[1,1,1,1,1,1,1,1,1,1],`, 21) + `[1,1,1,1,1,1,1,1,1,1]]}`

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{`, 400, "bad_state"},
		{"bad piece", `{"piece":"Q"}`, 400, "bad_state"},
		{"wide row", `{"piece":"T","field":[[0,0,0,0,0,0,0,0,0,0,0]]}`, 400, "bad_state"},
		{"bad weights", `{"piece":"T","weights":{"clear4":"x"}}`, 400, "bad_weights"},
		{"profile without storage", `{"piece":"T","profile":"x"}`, 400, "bad_weights"},
		{"topped out", full, 422, "no_placements"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, "POST", "/best-move", tc.body)
			if rec.Code != tc.status || !strings.Contains(rec.Body.String(), tc.code) {
				t.Errorf("got %d %s, want %d %s", rec.Code, rec.Body, tc.status, tc.code)
			}
		})
	}
}

func TestRequestWeights(t *testing.T) {
	s := newServer(t, false)
	// A huge single-clear reward turns the T-spin board into a plain clear.
	rec := do(t, s, "POST", "/best-move", tspinState+`,"weights":{"clear1":100000}}`)
	var d engine.Decision
	decode(t, rec, &d)
	if d.PlacementKind != "Clear1" {
		t.Errorf("kind = %s, want Clear1 with the override", d.PlacementKind)
	}
	if s.engine.Weights().Clear1 == 100000 {
		t.Error("request weights leaked into the shared engine")
	}
}

func TestProfiles(t *testing.T) {
	s := newServer(t, true)

	rec := do(t, s, "PUT", "/profiles/aggro?base=fast", `{"clear4":5}`)
	if rec.Code != 200 {
		t.Fatalf("put = %d %s", rec.Code, rec.Body)
	}
	var p storage.Profile
	decode(t, do(t, s, "GET", "/profiles/aggro", ""), &p)
	if p.Weights.Clear4 != 5 || p.Weights.Tspin3 != eval.Fast().Tspin3 {
		t.Errorf("profile = %+v", p.Weights)
	}

	var list map[string][]string
	decode(t, do(t, s, "GET", "/profiles", ""), &list)
	if len(list["profiles"]) != 1 || list["profiles"][0] != "aggro" {
		t.Errorf("list = %v", list)
	}

	if rec := do(t, s, "POST", "/best-move", tspinState+`,"profile":"aggro"}`); rec.Code != 200 {
		t.Errorf("best-move with profile = %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, s, "POST", "/best-move", tspinState+`,"profile":"missing"}`); rec.Code != 404 {
		t.Errorf("missing profile = %d %s", rec.Code, rec.Body)
	}

	if rec := do(t, s, "PUT", "/profiles/x?base=nope", `{}`); rec.Code != 400 {
		t.Errorf("bad base = %d", rec.Code)
	}
	if rec := do(t, s, "DELETE", "/profiles/aggro", ""); rec.Code != 200 {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do(t, s, "GET", "/profiles/aggro", ""); rec.Code != 404 {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestNoStorage(t *testing.T) {
	s := newServer(t, false)
	for _, path := range []string{"/stats", "/profiles", "/profiles/a"} {
		if rec := do(t, s, "GET", path, ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, rec.Code)
		}
	}
}

func TestEvaluate(t *testing.T) {
	s := newServer(t, false)
	rec := do(t, s, "POST", "/evaluate", tspinState+"}")
	var res evaluateRes
	decode(t, rec, &res)
	if res.MaxHeight != 3 || res.Overhangs == 0 && res.Cavities == 0 && res.TslotBonus == 0 {
		t.Errorf("evaluate = %+v", res)
	}
	w := eval.Default()
	if res.Transient != w.Transient(mustState(t).Board) {
		t.Errorf("transient %d differs from the evaluator", res.Transient)
	}
}

func TestRender(t *testing.T) {
	s := newServer(t, false)
	for _, q := range []string{"?width=50", "?width=50&best=true"} {
		rec := do(t, s, "POST", "/render"+q, tspinState+"}")
		if rec.Code != 200 || rec.Header().Get("Content-Type") != "image/png" {
			t.Fatalf("render%s = %d %s", q, rec.Code, rec.Header().Get("Content-Type"))
		}
		img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("decode png: %v", err)
		}
		if img.Bounds().Dx() != 50 {
			t.Errorf("width %d", img.Bounds().Dx())
		}
	}
}

func TestWebsocketDecisions(t *testing.T) {
	s := newServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub().Run(ctx)

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "hello" {
		t.Fatalf("first message %+v, %v", msg, err)
	}

	resp, err := http.Post(ts.URL+"/best-move", "application/json", strings.NewReader(tspinState+"}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read decision: %v", err)
	}
	var d engine.Decision
	if err := json.Unmarshal(msg.Payload, &d); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "decision" || d.PlacementKind != "Tspin2" {
		t.Errorf("message %s %+v", msg.Type, d)
	}
}

func mustState(t *testing.T) *board.State {
	t.Helper()
	st, err := board.ParseState([]byte(tspinState + "}"))
	if err != nil {
		t.Fatal(err)
	}
	return st
}
