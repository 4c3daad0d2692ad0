// SPDX-License-Identifier: MIT
package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ledstrip/internal/effects"
	"ledstrip/internal/store"
)

// Status classifies a control request outcome.
type Status int

const (
	StatusOK Status = iota
	StatusClientError
	StatusServerError
)

// HTTPCode maps the status to 200, 400 or 500.
func (s Status) HTTPCode() int {
	switch s {
	case StatusOK:
		return http.StatusOK
	case StatusClientError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusClientError:
		return "client error"
	default:
		return "server error"
	}
}

// Response is a status with its JSON body.
type Response struct {
	Status Status
	Body   map[string]any
}

func success(body map[string]any) Response {
	body["success"] = true
	return Response{Status: StatusOK, Body: body}
}

func failure(status Status, format string, args ...any) Response {
	return Response{Status: status, Body: map[string]any{"error": fmt.Sprintf(format, args...)}}
}

// Effect describes one selectable kind, modes or filters.
type Effect struct {
	// Kind is the request parameter naming the selection, "mode" or "filter".
	Kind string
	// Key is the store key the selection is committed to.
	Key   string
	Names []string
	// Vars returns the variables of the named entry, false when unknown.
	Vars func(name string) ([]effects.VarSpec, bool)
}

// ModeEffect selects among the registry's modes.
func ModeEffect(reg *effects.Registry) Effect {
	return Effect{
		Kind:  "mode",
		Key:   store.KeyMode,
		Names: reg.ModeNames(),
		Vars: func(name string) ([]effects.VarSpec, bool) {
			m, ok := reg.Mode(name)
			if !ok {
				return nil, false
			}
			return m.Vars(), true
		},
	}
}

// FilterEffect selects among the registry's filters.
func FilterEffect(reg *effects.Registry) Effect {
	return Effect{
		Kind:  "filter",
		Key:   store.KeyFilter,
		Names: reg.FilterNames(),
		Vars: func(name string) ([]effects.VarSpec, bool) {
			f, ok := reg.Filter(name)
			if !ok {
				return nil, false
			}
			return f.Vars(), true
		},
	}
}

// SetEffect selects the entry named by params[e.Kind]. Every variable of
// the entry is validated from params, where "stack_speed" is read from the
// "speed" parameter. Nothing is written unless all of them validate; the
// values are then stored and the selection committed last.
func SetEffect(st store.Store, e Effect, params url.Values) Response {
	name := params.Get(e.Kind)
	vars, ok := e.Vars(name)
	if !ok {
		return failure(StatusClientError, "Invalid %s valid %ss are %v", e.Kind, e.Kind, e.Names)
	}

	prefix := name + "_"
	values := make(map[string][]byte, len(vars))
	for _, v := range vars {
		param := strings.TrimPrefix(v.Key, prefix)
		res := v.Validator.Validate(params[param])
		switch {
		case res.Err != nil:
			return failure(StatusClientError, "%s", res.Err)
		case res.Empty():
			return failure(StatusServerError, "Validate function %s %s with key %s did not return any value", e.Kind, name, v.Key)
		}
		data, err := store.Encode(res.Value)
		if err != nil {
			return failure(StatusServerError, "failed to encode %s: %v", v.Key, err)
		}
		values[v.Key] = data
	}

	if len(values) > 0 {
		if err := st.BatchSet(values); err != nil {
			return failure(StatusServerError, "failed to store %s variables: %v", e.Kind, err)
		}
	}
	if err := store.Put(st, e.Key, name); err != nil {
		return failure(StatusServerError, "failed to select %s: %v", e.Kind, err)
	}
	logger.Infof("%s set to %s (%d variables)", e.Kind, name, len(values))
	return success(map[string]any{e.Kind: name})
}

// SetTunables validates and stores every parameter that names one of specs.
// Unknown parameters are a client error; at least one known one is required.
func SetTunables(st store.Store, specs []effects.VarSpec, params url.Values) Response {
	known := make(map[string]effects.VarSpec, len(specs))
	for _, s := range specs {
		known[s.Key] = s
	}

	values := make(map[string][]byte, len(params))
	set := make(map[string]any, len(params))
	for key, raw := range params {
		spec, ok := known[key]
		if !ok {
			return failure(StatusClientError, "Unknown tunable %s", key)
		}
		res := spec.Validator.Validate(raw)
		switch {
		case res.Err != nil:
			return failure(StatusClientError, "%s", res.Err)
		case res.Empty():
			return failure(StatusServerError, "Validate function for %s did not return any value", key)
		}
		data, err := store.Encode(res.Value)
		if err != nil {
			return failure(StatusServerError, "failed to encode %s: %v", key, err)
		}
		values[key] = data
		set[key] = res.Value
	}
	if len(values) == 0 {
		return failure(StatusClientError, "No tunables given")
	}

	if err := st.BatchSet(values); err != nil {
		return failure(StatusServerError, "failed to store tunables: %v", err)
	}
	return success(map[string]any{"tunables": set})
}
