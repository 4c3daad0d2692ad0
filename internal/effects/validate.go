// SPDX-License-Identifier: MIT
package effects

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ledstrip/internal/gradient"
)

// Validated is the outcome of validating a request parameter: exactly one of
// a value or an error, or neither when the validator itself is broken.
type Validated struct {
	Value any
	Err   error
}

// Empty reports whether the validator produced neither a value nor an error.
func (v Validated) Empty() bool {
	return v.Value == nil && v.Err == nil
}

func ok(v any) Validated { return Validated{Value: v} }

func fail(format string, args ...any) Validated {
	return Validated{Err: fmt.Errorf(format, args...)}
}

// Validator checks the raw request values for one variable.
type Validator interface {
	Validate(raw []string) Validated
	// Type names the value type, e.g. "int".
	Type() string
	// Constraints describes the accepted range for clients.
	Constraints() map[string]any
}

func first(raw []string) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	s := strings.TrimSpace(raw[0])
	return s, s != ""
}

// IntVar accepts an integer no smaller than Min.
type IntVar struct {
	Name string
	Min  int
}

func (v IntVar) Validate(raw []string) Validated {
	s, present := first(raw)
	if !present {
		return fail("%s has to have a value", v.Name)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fail("%s has to be an int", v.Name)
	}
	if n < v.Min {
		return fail("%s has to be at least %d", v.Name, v.Min)
	}
	return ok(n)
}

func (IntVar) Type() string { return "int" }

func (v IntVar) Constraints() map[string]any { return map[string]any{"min": v.Min} }

// FloatVar accepts any finite number.
type FloatVar struct {
	Name string
}

func (v FloatVar) Validate(raw []string) Validated {
	s, present := first(raw)
	if !present {
		return fail("%s has to have a value", v.Name)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fail("%s has to be a float", v.Name)
	}
	return ok(f)
}

func (FloatVar) Type() string { return "float" }

func (FloatVar) Constraints() map[string]any { return map[string]any{} }

// BoolVar accepts the usual boolean spellings.
type BoolVar struct {
	Name string
}

func (v BoolVar) Validate(raw []string) Validated {
	s, present := first(raw)
	if !present {
		return fail("%s has to have a value", v.Name)
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fail("%s has to be true or false", v.Name)
	}
	return ok(b)
}

func (BoolVar) Type() string { return "bool" }

func (BoolVar) Constraints() map[string]any { return map[string]any{} }

// GradientVar accepts a JSON gradient.
type GradientVar struct {
	Name string
}

func (v GradientVar) Validate(raw []string) Validated {
	s, present := first(raw)
	if !present {
		return fail("%s has to have a value", v.Name)
	}
	g, err := gradient.Parse(s)
	if err != nil {
		return Validated{Err: fmt.Errorf("%s: %w", v.Name, err)}
	}
	return ok(g)
}

func (GradientVar) Type() string { return "gradient" }

func (GradientVar) Constraints() map[string]any { return map[string]any{} }
