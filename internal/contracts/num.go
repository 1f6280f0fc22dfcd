package contracts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Num is an optional numeric attribute. Provider data is sparse: a field may be
// absent, reported as "-" or computed from a zero denominator.
type Num struct {
	V  float64
	OK bool
}

// Some wraps a present value. Non-finite values are stored as missing.
func Some(v float64) Num {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Num{}
	}
	return Num{V: v, OK: true}
}

// Missing returns the absent value
func Missing() Num {
	return Num{}
}

// Valid reports whether the value is present and finite
func (n Num) Valid() bool {
	return n.OK && !math.IsNaN(n.V) && !math.IsInf(n.V, 0)
}

// Or returns the value, or def when missing
func (n Num) Or(def float64) float64 {
	if n.Valid() {
		return n.V
	}
	return def
}

// Float returns the value, or NaN when missing
func (n Num) Float() float64 {
	return n.Or(math.NaN())
}

// MissingIf turns a present value into missing when pred holds (e.g. PER == 0)
func (n Num) MissingIf(pred func(float64) bool) Num {
	if n.Valid() && pred(n.V) {
		return Num{}
	}
	return n
}

// MarshalJSON encodes missing as null
func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.V, 'g', -1, 64)), nil
}

// UnmarshalJSON decodes null as missing
func (n *Num) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Num{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}
