// Package sizeguard rejects decoded payloads whose in-memory footprint is too
// large before any schema work is done on them.
package sizeguard

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxPayloadBytes is the largest accepted size estimate.
const MaxPayloadBytes = 1048576

// TooLargeMessage is returned to callers verbatim.
const TooLargeMessage = "Your log payload is too large. Maximum size is 1048576 bytes."

var ErrPayloadTooLarge = errors.New("payload too large")

const (
	numberSize = 8
	boolSize   = 4
)

// Estimate approximates the in-memory footprint of a value produced by
// encoding/json. Strings cost two bytes per UTF-16 code unit, numbers eight,
// booleans four and null nothing; object keys are costed like strings.
// The result is deterministic and grows with the structure.
func Estimate(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		return stringSize(t)
	case bool:
		return boolSize
	case json.Number, float64, float32, int, int64, int32, uint, uint64, uint32:
		return numberSize
	case map[string]any:
		n := 0
		for k, val := range t {
			n += stringSize(k) + Estimate(val)
		}
		return n
	case []any:
		n := 0
		for _, val := range t {
			n += Estimate(val)
		}
		return n
	default:
		return numberSize
	}
}

// Check returns ErrPayloadTooLarge when the estimate of v exceeds MaxPayloadBytes.
func Check(v any) error {
	return CheckLimit(v, MaxPayloadBytes)
}

// CheckLimit is Check with a caller supplied ceiling.
func CheckLimit(v any, limit int) error {
	if n := Estimate(v); n > limit {
		return fmt.Errorf("%w: estimated %d bytes, limit %d", ErrPayloadTooLarge, n, limit)
	}
	return nil
}

func stringSize(s string) int {
	units := 0
	for _, r := range s {
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return 2 * units
}
