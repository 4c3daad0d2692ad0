// SPDX-License-Identifier: MIT
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ledstrip/internal/effects"
	"ledstrip/internal/gradient"
	"ledstrip/internal/pixel"
	"ledstrip/internal/render"
	"ledstrip/internal/store"
)

func snapshot(t *testing.T, st store.Store) store.Snapshot {
	t.Helper()
	snap, err := st.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func errorText(r Response) string {
	s, _ := r.Body["error"].(string)
	return s
}

func TestSetModeUnknownListsModes(t *testing.T) {
	st := store.NewMemory()
	reg := effects.NewRegistry()

	res := SetEffect(st, ModeEffect(reg), url.Values{"mode": {"disco"}})
	if res.Status != StatusClientError || res.Status.HTTPCode() != http.StatusBadRequest {
		t.Fatalf("status = %v, want client error", res.Status)
	}
	for _, name := range reg.ModeNames() {
		if !strings.Contains(errorText(res), name) {
			t.Errorf("error %q does not list %s", errorText(res), name)
		}
	}
	if st.Version() != 0 {
		t.Error("store written on failure")
	}
}

func TestSetModeMissingVariable(t *testing.T) {
	st := store.NewMemory()
	res := SetEffect(st, ModeEffect(effects.NewRegistry()), url.Values{"mode": {"stack"}, "speed": {"2"}})

	if res.Status != StatusClientError {
		t.Fatalf("status = %v, want client error", res.Status)
	}
	if !strings.Contains(errorText(res), "concurrent") {
		t.Errorf("error %q does not name the variable", errorText(res))
	}
	if st.Version() != 0 {
		t.Error("store written on failure")
	}
}

func TestSetModeStoresPrefixedVariables(t *testing.T) {
	st := store.NewMemory()
	res := SetEffect(st, ModeEffect(effects.NewRegistry()), url.Values{
		"mode":       {"stack"},
		"concurrent": {"3"},
		"speed":      {"2.5"},
	})
	if res.Status != StatusOK {
		t.Fatalf("status = %v: %v", res.Status, res.Body)
	}
	if res.Body["mode"] != "stack" || res.Body["success"] != true {
		t.Errorf("body = %v", res.Body)
	}

	snap := snapshot(t, st)
	if got := snap.String(store.KeyMode, ""); got != "stack" {
		t.Errorf("mode = %q", got)
	}
	if got := snap.Int("stack_concurrent", 0); got != 3 {
		t.Errorf("stack_concurrent = %d, want 3", got)
	}
	if got := snap.Float("stack_speed", 0); got != 2.5 {
		t.Errorf("stack_speed = %v, want 2.5", got)
	}
}

func TestSetModeWithoutVariables(t *testing.T) {
	st := store.NewMemory()
	res := SetEffect(st, ModeEffect(effects.NewRegistry()), url.Values{"mode": {"full"}})
	if res.Status != StatusOK {
		t.Fatalf("status = %v: %v", res.Status, res.Body)
	}
	if st.Version() != 1 {
		t.Errorf("version = %d, want a single write", st.Version())
	}
}

// brokenVar never produces a value or an error.
type brokenVar struct{}

func (brokenVar) Validate([]string) effects.Validated { return effects.Validated{} }
func (brokenVar) Type() string                        { return "broken" }
func (brokenVar) Constraints() map[string]any         { return nil }

type brokenMode struct{}

func (brokenMode) Name() string      { return "broken" }
func (brokenMode) Visualizer() bool  { return false }
func (brokenMode) UsesFilters() bool { return false }

func (brokenMode) Vars() []effects.VarSpec {
	return []effects.VarSpec{{Key: "broken_level", Validator: brokenVar{}}}
}

func (brokenMode) Run(f *effects.Frame) pixel.Buffer { return pixel.New(f.Pixels) }

func TestSetModeEmptyValidationIsServerError(t *testing.T) {
	reg := effects.NewRegistryWith(
		[]effects.Mode{brokenMode{}, effects.NewFull()},
		[]effects.Filter{effects.NewNormal()},
		"full", "normal",
	)
	st := store.NewMemory()
	res := SetEffect(st, ModeEffect(reg), url.Values{"mode": {"broken"}, "level": {"3"}})
	if res.Status != StatusServerError || res.Status.HTTPCode() != http.StatusInternalServerError {
		t.Fatalf("status = %v, want server error", res.Status)
	}
	if !strings.Contains(errorText(res), "broken_level") {
		t.Errorf("error %q does not name the key", errorText(res))
	}
	if st.Version() != 0 {
		t.Error("store written on failure")
	}
}

func TestSetFilterGradient(t *testing.T) {
	st := store.NewMemory()
	res := SetEffect(st, FilterEffect(effects.NewRegistry()), url.Values{
		"filter":   {"hex"},
		"gradient": {`[[0.5, "#00ff00"]]`},
	})
	if res.Status != StatusOK {
		t.Fatalf("status = %v: %v", res.Status, res.Body)
	}
	var g gradient.Gradient
	if err := snapshot(t, st).Decode("hex_gradient", &g); err != nil {
		t.Fatal(err)
	}
	if len(g) != 3 || g[0].Position != 0 || g[2].Position != 1 || g[1].G != 1 {
		t.Errorf("gradient = %+v", g)
	}

	res = SetEffect(st, FilterEffect(effects.NewRegistry()), url.Values{
		"filter":   {"hex"},
		"gradient": {`[[2, "#00ff00"]]`},
	})
	if res.Status != StatusClientError || !strings.Contains(errorText(res), "gradient") {
		t.Errorf("out of range gradient: %v %v", res.Status, res.Body)
	}
}

func TestSetTunables(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
		status Status
	}{
		{"valid", url.Values{render.KeyEnergyBrightness: {"true"}, render.KeyEnergySensitivity: {"0.5"}}, StatusOK},
		{"unknown", url.Values{"volume": {"11"}}, StatusClientError},
		{"bad value", url.Values{render.KeyEnergySpeed: {"fast"}}, StatusClientError},
		{"empty", url.Values{}, StatusClientError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			res := SetTunables(st, render.Tunables(), tt.params)
			if res.Status != tt.status {
				t.Fatalf("status = %v, want %v: %v", res.Status, tt.status, res.Body)
			}
			if tt.status != StatusOK {
				if st.Version() != 0 {
					t.Error("store written on failure")
				}
				return
			}
			snap := snapshot(t, st)
			if !snap.Bool(render.KeyEnergyBrightness, false) || snap.Float(render.KeyEnergySensitivity, 0) != 0.5 {
				t.Errorf("tunables not stored: %v", res.Body)
			}
		})
	}
}

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemory()
	reg := effects.NewRegistry()
	if err := store.PutAll(st, render.Defaults(reg)); err != nil {
		t.Fatal(err)
	}
	state := func() render.State {
		return render.State{Mode: "full", Filter: "normal", Enabled: true, Energy: 0.42, Crossfade: 1}
	}
	srv := httptest.NewServer(NewServer("", st, reg, state).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func getJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestHTTPSetMode(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/setmode?mode=disco")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	getJSON(t, resp, &body)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body["error"].(string), "scanner") {
		t.Errorf("unknown mode: %d %v", resp.StatusCode, body)
	}

	resp, err = http.PostForm(srv.URL+"/api/setmode", url.Values{"mode": {"scanner"}, "shadow": {"0"}, "size": {"4"}})
	if err != nil {
		t.Fatal(err)
	}
	getJSON(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set scanner: %d %v", resp.StatusCode, body)
	}
	if got := snapshot(t, st).Int("scanner_size", 0); got != 4 {
		t.Errorf("scanner_size = %d, want 4", got)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/setmode", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", resp.StatusCode)
	}
}

func TestHTTPEnableAndState(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/api/enable", url.Values{"enabled": {"false"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable status = %d", resp.StatusCode)
	}
	if snapshot(t, st).Bool(store.KeyEnabled, true) {
		t.Error("enabled still true")
	}

	resp, err = http.Get(srv.URL + "/api/enable?enabled=maybe")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad enable status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	var state map[string]any
	getJSON(t, resp, &state)
	if state["energy_curr"] != 0.42 || state["mode"] != "full" {
		t.Errorf("state = %v", state)
	}
}

func TestHTTPTunablesAndModes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/tunables")
	if err != nil {
		t.Fatal(err)
	}
	var values map[string]any
	getJSON(t, resp, &values)
	if values[store.KeyMode] != effects.DefaultMode || values["stack_concurrent"] != 1.0 {
		t.Errorf("tunables = %v", values)
	}
	if g, ok := values["hex_gradient"].([]any); !ok || len(g) < 2 {
		t.Errorf("hex_gradient = %v", values["hex_gradient"])
	}

	resp, err = http.Post(srv.URL+"/api/tunables?energy_speed=true", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("set tunable status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/modes")
	if err != nil {
		t.Fatal(err)
	}
	var catalog Catalog
	getJSON(t, resp, &catalog)
	if len(catalog.Modes) != len(effects.NewRegistry().ModeNames()) || catalog.DefaultMode != effects.DefaultMode {
		t.Errorf("catalog = %+v", catalog)
	}
}

func TestCatalogPrint(t *testing.T) {
	var out bytes.Buffer
	NewCatalog(effects.NewRegistry()).Print(&out)
	for _, want := range []string{"full (default, filters)", "concurrent: int, default 1, min 1", "gradient: gradient"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
