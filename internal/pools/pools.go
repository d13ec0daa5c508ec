// Package pools orders address and delegated prefix pools for display.
package pools

import (
	"cmp"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// Family is an IP address family.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

func (f Family) String() string {
	if f == IPv4 {
		return "IPv4"
	}
	return "IPv6"
}

// FamilyOf infers the family from a textual pool: anything with a dot is
// IPv4.
func FamilyOf(s string) Family {
	if strings.Contains(s, ".") {
		return IPv4
	}
	return IPv6
}

// AddressPool is an address range. Pool is either "first-last", a CIDR
// prefix or a single address. PoolID is 0 when not configured.
type AddressPool struct {
	Pool   string
	PoolID int64
}

func (p AddressPool) ID() int64 { return p.PoolID }
func (p AddressPool) Family() Family { return FamilyOf(p.Pool) }
func (p AddressPool) String() string { return p.Pool }

// Range parses the pool into an address range.
func (p AddressPool) Range() (netipx.IPRange, bool) {
	return parseRange(p.Pool)
}

// PrefixPool is a delegated prefix pool. ExcludedPrefix is empty when not
// configured.
type PrefixPool struct {
	Prefix          string
	DelegatedLength int
	ExcludedPrefix  string
	PoolID          int64
}

func (p PrefixPool) ID() int64 { return p.PoolID }
func (p PrefixPool) Family() Family { return FamilyOf(p.Prefix) }
func (p PrefixPool) String() string { return p.Prefix }

func parseRange(s string) (netipx.IPRange, bool) {
	s = strings.ReplaceAll(s, " ", "")
	switch {
	case strings.Contains(s, "-"):
		r, err := netipx.ParseIPRange(s)
		return r, err == nil
	case strings.Contains(s, "/"):
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return netipx.IPRange{}, false
		}
		return netipx.RangeOfPrefix(prefix), true
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netipx.IPRange{}, false
	}
	return netipx.IPRangeFrom(addr, addr), true
}

// CompareAddressPools orders pools by first address and then by last
// address. Unparsable pools sort after valid ones and compare as strings
// among themselves.
func CompareAddressPools(a, b AddressPool) int {
	ra, okA := a.Range()
	rb, okB := b.Range()
	if c, done := compareValidity(okA, okB, a.Pool, b.Pool); done {
		return c
	}
	if c := ra.From().Compare(rb.From()); c != 0 {
		return c
	}
	return ra.To().Compare(rb.To())
}

// ComparePrefixPools orders pools by prefix, delegated length and
// excluded prefix in that order. A pool without an excluded prefix sorts
// before one with it.
func ComparePrefixPools(a, b PrefixPool) int {
	if c := comparePrefixes(a.Prefix, b.Prefix); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DelegatedLength, b.DelegatedLength); c != 0 {
		return c
	}
	switch {
	case a.ExcludedPrefix == "" && b.ExcludedPrefix == "":
		return 0
	case a.ExcludedPrefix == "":
		return -1
	case b.ExcludedPrefix == "":
		return 1
	}
	return comparePrefixes(a.ExcludedPrefix, b.ExcludedPrefix)
}

// comparePrefixes compares CIDR prefixes by first address, then by mask
// length.
func comparePrefixes(a, b string) int {
	pa, errA := netip.ParsePrefix(a)
	pb, errB := netip.ParsePrefix(b)
	if c, done := compareValidity(errA == nil, errB == nil, a, b); done {
		return c
	}
	if c := pa.Masked().Addr().Compare(pb.Masked().Addr()); c != 0 {
		return c
	}
	return cmp.Compare(pa.Bits(), pb.Bits())
}

// compareValidity handles the cases where at least one side failed to
// parse. done is false when both sides are valid.
func compareValidity(okA, okB bool, a, b string) (c int, done bool) {
	switch {
	case okA && okB:
		return 0, false
	case okA:
		return -1, true
	case okB:
		return 1, true
	}
	return strings.Compare(a, b), true
}
