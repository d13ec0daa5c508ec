package stats

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Divergence records a counter that servers report differently.
type Divergence struct {
	Key    string
	Values map[string]any // keyed by server
}

// Reconcile computes the statistics of a subnet from its local subnets
// and returns the counters the servers disagree on, sorted by key.
//
// Servers sharing a subnet (for instance an HA pair) share its leases, so
// the largest reported value of each counter is taken rather than the sum.
// Non-integer values are taken from the first server that reports them.
// Nil local subnets are skipped.
func Reconcile(s *Subnet) []Divergence {
	if s == nil {
		return nil
	}
	merged := make(Statistics)
	values := make(map[string]map[string]any)
	var keys []string

	servers := 0
	for _, local := range s.LocalSubnets {
		if local == nil {
			continue
		}
		servers++
		for k, v := range local.Stats {
			if _, ok := values[k]; !ok {
				values[k] = make(map[string]any)
				keys = append(keys, k)
			}
			values[k][local.Server] = v

			cur, seen := merged[k]
			if !seen {
				merged[k] = v
				continue
			}
			a, okA := Counter(cur)
			b, okB := Counter(v)
			if okA && okB && b.Cmp(a) > 0 {
				merged[k] = b
			}
		}
	}
	s.Stats = merged

	sort.Strings(keys)
	var divergences []Divergence
	for _, k := range keys {
		if servers > 1 && !agree(values[k], servers) {
			divergences = append(divergences, Divergence{Key: k, Values: values[k]})
		}
	}
	return divergences
}

// agree reports whether all servers reported the same value. A counter
// missing on some server counts as disagreement.
func agree(values map[string]any, servers int) bool {
	if len(values) != servers {
		return false
	}
	var first string
	i := 0
	for _, v := range values {
		repr := canonical(v)
		if i == 0 {
			first = repr
		} else if repr != first {
			return false
		}
		i++
	}
	return true
}

func canonical(v any) string {
	if n, ok := Counter(v); ok {
		return n.String()
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// Aggregate sums the subnet counters of a shared network into its own
// statistics. Per-pool counters are not carried over.
func Aggregate(n *SharedNetwork) {
	if n == nil {
		return
	}
	sums := make(map[string]*big.Int)
	for _, s := range n.Subnets {
		if s == nil {
			continue
		}
		for k, v := range s.Stats {
			if strings.Contains(k, "[") {
				continue
			}
			c, ok := Counter(v)
			if !ok {
				continue
			}
			if sums[k] == nil {
				sums[k] = new(big.Int)
			}
			sums[k].Add(sums[k], c)
		}
	}
	n.Stats = make(Statistics, len(sums))
	for k, v := range sums {
		n.Stats[k] = v
	}
}
