// Package stats normalizes DHCP statistic counters and merges the views
// several servers report for the same subnet.
//
// Counters such as the number of addresses in an IPv6 subnet do not fit
// in 64 bits, so they travel as decimal strings and are converted to
// *big.Int here. Nothing in this package fails on malformed input: values
// that do not look like integers are left as they are.
package stats

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"
)

// Statistics maps counter names to their values.
type Statistics map[string]any

// ParseCounter converts a string holding a base 10 integer to *big.Int.
// Every other value, including non-numeric strings, is returned unchanged.
func ParseCounter(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if n, ok := parseBig(s); ok {
		return n
	}
	return v
}

// Counter returns v as an integer if it holds one in any representation.
func Counter(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return n, true
	case int:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, false
		}
		b, _ := big.NewFloat(n).Int(nil)
		return b, true
	case json.Number:
		return parseBig(string(n))
	case string:
		return parseBig(n)
	}
	return nil, false
}

func parseBig(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

// NormalizeMap replaces every integer-looking string in s by a *big.Int.
func NormalizeMap(s Statistics) {
	for k, v := range s {
		s[k] = ParseCounter(v)
	}
}

// IsZero reports whether v is an integer equal to zero. Values that are
// not integers are not zero.
func IsZero(v any) bool {
	n, ok := Counter(v)
	return ok && n.Sign() == 0
}

// Float converts a counter to float64 for display and metrics. Precision
// may be lost for very large values.
func Float(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return f, true
	}
	n, ok := Counter(v)
	if !ok {
		return 0, false
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f, true
}

// Utilization returns assigned/total as a percentage. It is 0 when total
// is zero or either counter is missing.
func Utilization(assigned, total any) float64 {
	a, okA := Counter(assigned)
	t, okT := Counter(total)
	if !okA || !okT || t.Sign() == 0 {
		return 0
	}
	ratio := new(big.Rat).SetFrac(new(big.Int).Mul(a, big.NewInt(100)), t)
	f, _ := ratio.Float64()
	return f
}
