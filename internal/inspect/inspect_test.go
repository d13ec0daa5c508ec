package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keaview/internal/kea"
	"keaview/internal/params"
)

const configResponse = `[{"result": 0, "arguments": {"Dhcp4": {
  "valid-lifetime": %d,
  "shared-networks": [{"name": "frontend", "subnet4": [
    {"id": 1, "subnet": "10.0.0.0/24", "pools": [{"pool": "10.0.0.1-10.0.0.10"}, {"pool": "10.0.0.11-10.0.0.20", "pool-id": 1}]}
  ]}],
  "subnet4": [{"id": 2, "subnet": "192.0.2.0/24", "pools": [{"pool": "192.0.2.0/25"}]}]
}}}]`

const statsResponse = `[{"result": 0, "arguments": {
  "pkt4-received": [[5, "2026-02-23 17:36:02.458178"]],
  "subnet[1].total-addresses": [[20, "2026-02-23 17:36:02.494325"]],
  "subnet[1].assigned-addresses": [[%d, "2026-02-23 17:36:02.495390"]],
  "subnet[2].total-addresses": [[128, "2026-02-23 17:36:02.494384"]]
}}]`

func keaServer(t *testing.T, lifetime, assigned int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req kea.Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Command {
		case "config-get":
			w.Write(fmt.Appendf(nil, configResponse, lifetime))
		case "statistic-get-all":
			w.Write(fmt.Appendf(nil, statsResponse, assigned))
		default:
			w.Write([]byte(`[{"result": 2, "text": "unsupported"}]`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_CombinesServers(t *testing.T) {
	a := keaServer(t, 4000, 5)
	b := keaServer(t, 3600, 7)

	snap := Fetch(context.Background(), []Target{
		{Name: "kea-1", Client: kea.NewClient(a.URL, 5*time.Second)},
		{Name: "kea-2", Client: kea.NewClient(b.URL, 5*time.Second)},
	}, "dhcp4")

	require.Len(t, snap.Servers, 2)
	assert.NoError(t, snap.Servers[0].Err)
	assert.NoError(t, snap.Servers[1].Err)

	require.Len(t, snap.Networks, 1)
	assert.Equal(t, "frontend", snap.Networks[0].Name)
	require.Len(t, snap.Subnets, 1)
	assert.Equal(t, int64(2), snap.Subnets[0].ID)

	sub, ok := snap.Subnet(1)
	require.True(t, ok)
	require.Len(t, sub.LocalSubnets, 2)
	assert.Equal(t, big.NewInt(20), sub.Stats["total-addresses"])
	assert.Equal(t, big.NewInt(7), sub.Stats["assigned-addresses"])

	require.Len(t, snap.Divergences[1], 1)
	assert.Equal(t, "assigned-addresses", snap.Divergences[1][0].Key)
	assert.Empty(t, snap.Divergences[2])

	assert.Equal(t, big.NewInt(7), snap.Networks[0].Stats["assigned-addresses"])
	assert.Equal(t, big.NewInt(5), snap.Servers[0].Stats.Global["pkt4-received"])

	rows := snap.GlobalParameters(params.Options{})
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Divergent())

	rows = snap.SubnetParameters(1, params.Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Global", rows[0].Cells[0].Level)

	addrGroups, prefixGroups := snap.SubnetPools(1)
	require.Len(t, addrGroups, 2)
	assert.Equal(t, int64(0), addrGroups[0].PoolID)
	assert.Len(t, addrGroups[0].Pools, 1)
	assert.Empty(t, prefixGroups)
}

func TestFetch_FailingServer(t *testing.T) {
	a := keaServer(t, 4000, 5)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	snap := Fetch(context.Background(), []Target{
		{Name: "kea-1", Client: kea.NewClient(a.URL, 5*time.Second)},
		{Name: "kea-down", Client: kea.NewClient(down.URL, 5*time.Second)},
	}, "dhcp4")

	assert.NoError(t, snap.Servers[0].Err)
	assert.Error(t, snap.Servers[1].Err)
	assert.Nil(t, snap.Servers[1].Config)

	sub, ok := snap.Subnet(1)
	require.True(t, ok)
	assert.Len(t, sub.LocalSubnets, 1)
	assert.Empty(t, snap.Divergences)

	rows := snap.SubnetParameters(1, params.Options{})
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Cells, 2)
	assert.True(t, rows[0].Cells[1].Effective.IsNull())
}

func TestBudget(t *testing.T) {
	target := func(timeout time.Duration) Target {
		c := kea.NewClient("http://kea", timeout)
		c.Retries = 1
		return Target{Name: "kea", Client: c}
	}

	// one attempt timing out, a 1s delay, a second attempt timing out
	assert.Equal(t, 2*3*time.Second, Budget([]Target{target(time.Second), target(500 * time.Millisecond)}))

	many := make([]Target, maxConcurrentQueries+1)
	for i := range many {
		many[i] = target(time.Second)
	}
	assert.Equal(t, 2*2*3*time.Second, Budget(many))
	assert.Zero(t, Budget(nil))
}
