package stats

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return n
}

func TestParseCounter(t *testing.T) {
	huge := "123456789012345678901234567890"

	got := ParseCounter(huge)
	n, ok := got.(*big.Int)
	require.True(t, ok, "expected *big.Int, got %T", got)
	assert.Equal(t, huge, n.String())

	assert.Equal(t, "n/a", ParseCounter("n/a"))
	assert.Equal(t, "", ParseCounter(""))
	assert.Equal(t, 42.0, ParseCounter(42.0))
	assert.Equal(t, true, ParseCounter(true))
	assert.Nil(t, ParseCounter(nil))
	assert.Equal(t, big.NewInt(-5), ParseCounter("-5"))
}

func TestCounter(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"big", big.NewInt(7), "7", true},
		{"int64", int64(8), "8", true},
		{"integral float", 9.0, "9", true},
		{"fractional float", 9.5, "", false},
		{"json number", json.Number("18446744073709551616"), "18446744073709551616", true},
		{"string", "10", "10", true},
		{"word", "ten", "", false},
		{"bool", true, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Counter(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, n.String())
			}
		})
	}
}

func TestNormalize_Nested(t *testing.T) {
	network := &SharedNetwork{
		Name:  "frontend",
		Stats: Statistics{"total-addresses": "340282366920938463463374607431768211456"},
		Subnets: []*Subnet{{
			ID:    1,
			Stats: Statistics{"assigned-addresses": "12", "note": "text", "flag": false},
			LocalSubnets: []*LocalSubnet{
				{Server: "kea-1", Stats: Statistics{"declined-addresses": "3", "ratio": 0.5}},
				{Server: "kea-2", Stats: nil},
			},
		}},
	}

	Normalize(network, nil)

	assert.Equal(t, bigInt(t, "340282366920938463463374607431768211456"), network.Stats["total-addresses"])
	subnet := network.Subnets[0]
	assert.Equal(t, big.NewInt(12), subnet.Stats["assigned-addresses"])
	assert.Equal(t, "text", subnet.Stats["note"])
	assert.Equal(t, false, subnet.Stats["flag"])
	assert.Equal(t, big.NewInt(3), subnet.LocalSubnets[0].Stats["declined-addresses"])
	assert.Equal(t, 0.5, subnet.LocalSubnets[0].Stats["ratio"])
	assert.Nil(t, subnet.LocalSubnets[1].Stats)
}

func TestNormalize_NilEntities(t *testing.T) {
	network := &SharedNetwork{
		Subnets: []*Subnet{
			nil,
			{ID: 1, Stats: Statistics{"total-addresses": "7"}, LocalSubnets: []*LocalSubnet{nil}},
		},
	}
	var subnet *Subnet

	assert.NotPanics(t, func() { Normalize(network, subnet) })
	assert.Equal(t, big.NewInt(7), network.Subnets[1].Stats["total-addresses"])
}

func TestOutOfPool(t *testing.T) {
	s := Statistics{
		"total-out-of-pool-addresses":    big.NewInt(10),
		"assigned-out-of-pool-addresses": big.NewInt(2),
		"total-out-of-pool-pds":          big.NewInt(0),
		"assigned-out-of-pool-pds":       big.NewInt(0),
		"total-addresses":                big.NewInt(256),
	}

	addresses, present := OutOfPool(s, AddressCounters)
	assert.True(t, present)
	assert.Equal(t, Statistics{
		"total-addresses":    big.NewInt(10),
		"assigned-addresses": big.NewInt(2),
	}, addresses)

	prefixes, present := OutOfPool(s, PrefixCounters)
	assert.False(t, present)
	assert.Len(t, prefixes, 2)
	assert.Contains(t, prefixes, "total-pds")
}

func TestOutOfPool_NAs(t *testing.T) {
	s := Statistics{"total-out-of-pool-nas": "18446744073709551616"}
	nas, present := OutOfPool(s, AddressCounters)
	assert.True(t, present)
	assert.Contains(t, nas, "total-nas")

	_, present = OutOfPool(Statistics{}, AddressCounters)
	assert.False(t, present)
}

func TestReconcile(t *testing.T) {
	subnet := &Subnet{
		ID: 1,
		LocalSubnets: []*LocalSubnet{
			{Server: "kea-1", Stats: Statistics{"total-addresses": big.NewInt(100), "assigned-addresses": big.NewInt(10)}},
			{Server: "kea-2", Stats: Statistics{"total-addresses": big.NewInt(100), "assigned-addresses": big.NewInt(12), "declined-addresses": big.NewInt(1)}},
		},
	}

	divergences := Reconcile(subnet)

	assert.Equal(t, big.NewInt(100), subnet.Stats["total-addresses"])
	assert.Equal(t, big.NewInt(12), subnet.Stats["assigned-addresses"])
	assert.Equal(t, big.NewInt(1), subnet.Stats["declined-addresses"])

	require.Len(t, divergences, 2)
	assert.Equal(t, "assigned-addresses", divergences[0].Key)
	assert.Equal(t, big.NewInt(10), divergences[0].Values["kea-1"])
	assert.Equal(t, "declined-addresses", divergences[1].Key)
	assert.NotContains(t, divergences[1].Values, "kea-1")
}

func TestReconcile_SingleServer(t *testing.T) {
	subnet := &Subnet{LocalSubnets: []*LocalSubnet{{Server: "kea-1", Stats: Statistics{"total-addresses": big.NewInt(5)}}}}
	assert.Empty(t, Reconcile(subnet))
	assert.Equal(t, big.NewInt(5), subnet.Stats["total-addresses"])
}

func TestReconcile_SkipsNilLocalSubnets(t *testing.T) {
	subnet := &Subnet{LocalSubnets: []*LocalSubnet{
		nil,
		{Server: "kea-1", Stats: Statistics{"total-addresses": big.NewInt(5)}},
	}}

	var divergences []Divergence
	require.NotPanics(t, func() { divergences = Reconcile(subnet) })
	assert.Empty(t, divergences)
	assert.Equal(t, big.NewInt(5), subnet.Stats["total-addresses"])

	assert.Nil(t, Reconcile(nil))
}

func TestAggregate_SkipsNilSubnets(t *testing.T) {
	network := &SharedNetwork{Subnets: []*Subnet{nil, {Stats: Statistics{"total-addresses": big.NewInt(3)}}}}

	require.NotPanics(t, func() { Aggregate(network) })
	assert.Equal(t, big.NewInt(3), network.Stats["total-addresses"])
	assert.NotPanics(t, func() { Aggregate(nil) })
}

func TestAggregate(t *testing.T) {
	network := &SharedNetwork{
		Subnets: []*Subnet{
			{Stats: Statistics{"total-addresses": big.NewInt(100), "pool[0].total-addresses": big.NewInt(100)}},
			{Stats: Statistics{"total-addresses": bigInt(t, "18446744073709551616"), "label": "x"}},
		},
	}

	Aggregate(network)

	assert.Equal(t, bigInt(t, "18446744073709551716"), network.Stats["total-addresses"])
	assert.NotContains(t, network.Stats, "pool[0].total-addresses")
	assert.NotContains(t, network.Stats, "label")
}

func TestUtilization(t *testing.T) {
	assert.InDelta(t, 25.0, Utilization(big.NewInt(25), big.NewInt(100)), 1e-9)
	assert.InDelta(t, 50.0, Utilization("9223372036854775808", "18446744073709551616"), 1e-9)
	assert.Equal(t, 0.0, Utilization(big.NewInt(1), big.NewInt(0)))
	assert.Equal(t, 0.0, Utilization("n/a", big.NewInt(10)))
}

func TestIsZeroAndFloat(t *testing.T) {
	assert.True(t, IsZero("0"))
	assert.False(t, IsZero("n/a"))
	f, ok := Float(big.NewInt(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)
	_, ok = Float("abc")
	assert.False(t, ok)
}
