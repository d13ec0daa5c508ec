package main

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"keaview/internal/params"
	"keaview/internal/pools"
	"keaview/internal/stats"
)

func TestWriteParams(t *testing.T) {
	rows := []params.Row{{
		Key:  "valid-lifetime",
		Name: "Valid Lifetime",
		Cells: []params.Cell{
			{Effective: params.IntValue(4000), Level: "Global", Values: []params.Value{{}, {}, params.IntValue(4000)}},
			{Effective: params.IntValue(3600), Level: "Subnet", Values: []params.Value{params.IntValue(3600), {}, {}}},
		},
	}}

	var buf bytes.Buffer
	writeParams(&buf, []string{"kea-1", "kea-2"}, rows, false)
	out := buf.String()
	assert.Contains(t, out, "Valid Lifetime *")
	assert.Contains(t, out, "4000 (Global)")
	assert.Contains(t, out, "3600 (Subnet)")

	buf.Reset()
	writeParams(&buf, []string{"kea-1", "kea-2"}, rows, true)
	assert.Contains(t, buf.String(), "- | - | 4000")

	buf.Reset()
	writeParams(&buf, []string{"kea-1"}, nil, false)
	assert.Equal(t, "No parameters.\n", buf.String())
}

func TestValueText_RootZone(t *testing.T) {
	assert.Equal(t, "(root)", valueText("ddns-qualifying-suffix", params.StringValue(".")))
	assert.Equal(t, "example.org.", valueText("ddns-qualifying-suffix", params.StringValue("example.org.")))
	assert.Equal(t, ".", valueText("hostname-char-replacement", params.StringValue(".")))
}

func TestWritePools(t *testing.T) {
	sub := &stats.Subnet{
		ID:     1,
		Prefix: "10.0.0.0/24",
		Stats: stats.Statistics{
			"pool[0].total-addresses":        big.NewInt(10),
			"pool[0].assigned-addresses":     big.NewInt(5),
			"total-out-of-pool-addresses":    big.NewInt(4),
			"assigned-out-of-pool-addresses": big.NewInt(1),
		},
	}
	groups := pools.GroupAddressPools([]pools.AddressPool{
		{Pool: "10.0.0.11-10.0.0.20", PoolID: 1},
		{Pool: "10.0.0.1-10.0.0.10"},
	})

	var buf bytes.Buffer
	writePools(&buf, sub, groups, nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, "Subnet 1 10.0.0.0/24", lines[0])
	assert.Contains(t, lines[2], "10.0.0.1-10.0.0.10")
	assert.Contains(t, lines[2], "50.0%")
	assert.Contains(t, lines[3], "10.0.0.11-10.0.0.20")
	assert.Contains(t, lines[3], "-")
	assert.Equal(t, "Out of pool: 1 of 4 assigned (25.0%)", lines[4])
}
