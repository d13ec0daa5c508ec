package pools

import (
	"cmp"
	"slices"
)

// Pool is implemented by AddressPool and PrefixPool.
type Pool interface {
	ID() int64
	Family() Family
	String() string
}

// Group is a set of pools sharing a pool ID and address family.
type Group[P Pool] struct {
	PoolID int64
	Family Family
	Pools  []P
}

type groupKey struct {
	id     int64
	family Family
}

// GroupAddressPools partitions address pools by pool ID and family.
func GroupAddressPools(pools []AddressPool) []Group[AddressPool] {
	return groupPools(pools, CompareAddressPools)
}

// GroupPrefixPools partitions delegated prefix pools by pool ID and family.
func GroupPrefixPools(pools []PrefixPool) []Group[PrefixPool] {
	return groupPools(pools, ComparePrefixPools)
}

// groupPools returns groups ordered IPv4 first; within a family,
// single-pool groups come first ordered by their pool, then multi-pool
// groups ordered by pool ID. Pools inside a group are sorted with compare.
func groupPools[P Pool](pools []P, compare func(a, b P) int) []Group[P] {
	index := make(map[groupKey]int)
	var groups []Group[P]
	for _, p := range pools {
		key := groupKey{id: p.ID(), family: p.Family()}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group[P]{PoolID: key.id, Family: key.family})
		}
		groups[i].Pools = append(groups[i].Pools, p)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Pools, func(a, b P) int {
			if c := compare(a, b); c != 0 {
				return c
			}
			return cmp.Compare(a.String(), b.String())
		})
	}

	slices.SortFunc(groups, func(a, b Group[P]) int {
		if a.Family != b.Family {
			return cmp.Compare(a.Family, b.Family)
		}
		singleA, singleB := len(a.Pools) == 1, len(b.Pools) == 1
		switch {
		case singleA && !singleB:
			return -1
		case !singleA && singleB:
			return 1
		case singleA && singleB:
			if c := compare(a.Pools[0], b.Pools[0]); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.PoolID, b.PoolID)
	})
	return groups
}
