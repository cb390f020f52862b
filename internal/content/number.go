package content

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Number is an optional numeric field from loosely typed JSON. It accepts a
// JSON number, a numeric string, or null. Anything else decodes as unset so
// malformed source data degrades to defaults instead of failing the load.
type Number struct {
	Value float64
	Set   bool
}

// N returns a set Number.
func N(v float64) Number {
	return Number{Value: v, Set: true}
}

// Finite reports whether the number is set and finite.
func (n Number) Finite() bool {
	return n.Set && !math.IsNaN(n.Value) && !math.IsInf(n.Value, 0)
}

// Positive reports whether the number is finite and greater than zero.
func (n Number) Positive() bool {
	return n.Finite() && n.Value > 0
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil //nolint: nilerr
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil //nolint: nilerr
		}
		*n = N(v)
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil //nolint: nilerr
	}
	*n = N(v)
	return nil
}

// MarshalJSON implements json.Marshaler. Unset and non-finite values encode as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Finite() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

func (n Number) String() string {
	if !n.Set {
		return "<unset>"
	}
	return fmt.Sprintf("%g", n.Value)
}
