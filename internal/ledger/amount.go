package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Amount is a token quantity. It is never negative.
//
// Amounts are encoded as JSON strings ("100") so that large values survive
// JSON decoders that read numbers as float64. Decoding accepts either a
// string or a bare integer.
type Amount int64

// Add returns a+b, or false if the sum overflows.
func (a Amount) Add(b Amount) (Amount, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// Sub returns a-b, or false if the result would be negative.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// String returns the decimal representation.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// ParseAmount parses a non-negative decimal integer.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("parse amount %q: negative", s)
	}
	return Amount(v), nil
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts "123" or 123.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*a = v
		return nil
	}
	v, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
