package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is an optional float. The zero Value is undefined.
type Value struct {
	v  float64
	ok bool
}

// Undefined is the marker for positions without enough history.
var Undefined = Value{}

// Some returns a defined Value. NaN and ±Inf are treated as undefined.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Value{v: v, ok: true}
}

// Get returns the number and whether it is defined.
func (x Value) Get() (float64, bool) { return x.v, x.ok }

// Defined reports whether x carries a number.
func (x Value) Defined() bool { return x.ok }

// Or returns the number, or def when undefined.
func (x Value) Or(def float64) float64 {
	if !x.ok {
		return def
	}
	return x.v
}

// String renders an undefined value as "N/A".
func (x Value) String() string {
	if !x.ok {
		return "N/A"
	}
	return strconv.FormatFloat(x.v, 'f', -1, 64)
}

// MarshalJSON encodes an undefined value as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON decodes null as undefined.
func (x *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*x = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*x = Some(f)
	return nil
}
