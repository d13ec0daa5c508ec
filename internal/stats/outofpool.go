package stats

import "strings"

const outOfPoolMarker = "out-of-pool-"

// CounterFamily selects address or delegated prefix counters.
type CounterFamily int

const (
	// AddressCounters covers IPv4 addresses and IPv6 NAs.
	AddressCounters CounterFamily = iota
	// PrefixCounters covers delegated prefixes.
	PrefixCounters
)

func (f CounterFamily) matches(key string) bool {
	if f == PrefixCounters {
		return strings.HasSuffix(key, "-pds")
	}
	return strings.HasSuffix(key, "-addresses") || strings.HasSuffix(key, "-nas")
}

// OutOfPool extracts the counters for leases given outside of any pool,
// for instance from host reservations. The marker is removed from the
// returned keys so "total-out-of-pool-addresses" becomes
// "total-addresses". present is false unless some total counter is
// non-zero.
func OutOfPool(s Statistics, family CounterFamily) (out Statistics, present bool) {
	out = make(Statistics)
	for k, v := range s {
		if !strings.Contains(k, outOfPoolMarker) || !family.matches(k) {
			continue
		}
		name := strings.Replace(k, outOfPoolMarker, "", 1)
		out[name] = v
		if strings.HasPrefix(name, "total") {
			if n, ok := Counter(v); ok && n.Sign() != 0 {
				present = true
			}
		}
	}
	return out, present
}
