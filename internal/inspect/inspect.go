// Package inspect gathers configuration and statistics from a fleet of
// Kea servers and combines the per-server views.
package inspect

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"keaview/internal/kea"
	"keaview/internal/keaconfig"
	"keaview/internal/log"
	"keaview/internal/params"
	"keaview/internal/pools"
	"keaview/internal/stats"
)

// maxConcurrentQueries bounds the number of servers queried at once.
const maxConcurrentQueries = 8

// commandsPerServer is the number of commands fetchServer sends, one
// after the other.
const commandsPerServer = 2

// Target is a server to query.
type Target struct {
	Name   string
	Client *kea.Client
}

// ServerSnapshot is what one server reported. Err is set when the server
// could not be queried; the other fields are then nil.
type ServerSnapshot struct {
	Name   string
	Config *keaconfig.Config
	Stats  *kea.Stats
	Err    error
}

// Snapshot is the combined view of all servers.
type Snapshot struct {
	Service string
	Servers []ServerSnapshot
	// Networks holds shared networks with their subnets.
	Networks []*stats.SharedNetwork
	// Subnets holds subnets outside of any shared network.
	Subnets []*stats.Subnet
	// Divergences lists counters servers disagree on, by subnet ID.
	Divergences map[int64][]stats.Divergence
}

// Fetch queries configuration and statistics of every target. A failing
// server is recorded in its ServerSnapshot and does not fail the others.
func Fetch(ctx context.Context, targets []Target, service string) *Snapshot {
	logger := log.WithComponent("inspect")
	snap := &Snapshot{
		Service: service,
		Servers: make([]ServerSnapshot, len(targets)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQueries)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			snap.Servers[i] = fetchServer(ctx, target, service)
			return nil
		})
	}
	_ = g.Wait()

	for _, srv := range snap.Servers {
		if srv.Err != nil {
			logger.Warn().Err(srv.Err).Str("server", srv.Name).Msg("server query failed")
		}
	}

	snap.build()
	logger.Debug().
		Int("servers", len(snap.Servers)).
		Int("shared_networks", len(snap.Networks)).
		Int("subnets", len(snap.AllSubnets())).
		Msg("snapshot built")
	return snap
}

// Budget returns how long Fetch may take on targets when every server
// uses up its retries. Servers beyond maxConcurrentQueries wait for a
// free slot, so the slowest server counts once per batch.
func Budget(targets []Target) time.Duration {
	var slowest time.Duration
	for _, t := range targets {
		slowest = max(slowest, t.Client.Budget())
	}
	batches := (len(targets) + maxConcurrentQueries - 1) / maxConcurrentQueries
	return time.Duration(batches*commandsPerServer) * slowest
}

func fetchServer(ctx context.Context, target Target, service string) ServerSnapshot {
	srv := ServerSnapshot{Name: target.Name}

	args, err := target.Client.GetConfig(ctx, service)
	if err != nil {
		srv.Err = fmt.Errorf("fetching configuration: %w", err)
		return srv
	}
	cfg, err := keaconfig.Parse(args)
	if err != nil {
		srv.Err = err
		return srv
	}

	st, err := target.Client.GetStats(ctx, service)
	if err != nil {
		srv.Err = fmt.Errorf("fetching statistics: %w", err)
		return srv
	}

	srv.Config = cfg
	srv.Stats = st
	return srv
}

// build assembles the statistics model from the per-server results,
// normalizes the counters and reconciles the server views.
func (s *Snapshot) build() {
	subnets := make(map[int64]*stats.Subnet)
	networks := make(map[string]*stats.SharedNetwork)
	var order []int64

	for _, srv := range s.Servers {
		if srv.Config == nil {
			continue
		}
		for _, cs := range srv.Config.AllSubnets() {
			sub, ok := subnets[cs.ID]
			if !ok {
				sub = &stats.Subnet{ID: cs.ID, Prefix: cs.Prefix, SharedNetwork: cs.SharedNetwork}
				subnets[cs.ID] = sub
				order = append(order, cs.ID)
			}
			local := &stats.LocalSubnet{Server: srv.Name, Stats: stats.Statistics{}}
			if srv.Stats != nil {
				for k, v := range srv.Stats.Subnets[cs.ID] {
					local.Stats[k] = v
				}
			}
			sub.LocalSubnets = append(sub.LocalSubnets, local)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	s.Divergences = make(map[int64][]stats.Divergence)
	for _, id := range order {
		sub := subnets[id]
		if sub.SharedNetwork == "" {
			s.Subnets = append(s.Subnets, sub)
			continue
		}
		n, ok := networks[sub.SharedNetwork]
		if !ok {
			n = &stats.SharedNetwork{Name: sub.SharedNetwork}
			networks[sub.SharedNetwork] = n
			s.Networks = append(s.Networks, n)
		}
		n.Subnets = append(n.Subnets, sub)
	}
	sort.Slice(s.Networks, func(i, j int) bool { return s.Networks[i].Name < s.Networks[j].Name })

	roots := make([]stats.Holder, 0, len(s.Networks)+len(s.Subnets))
	for _, n := range s.Networks {
		roots = append(roots, n)
	}
	for _, sub := range s.Subnets {
		roots = append(roots, sub)
	}
	stats.Normalize(roots...)

	for _, sub := range s.AllSubnets() {
		if d := stats.Reconcile(sub); len(d) > 0 {
			s.Divergences[sub.ID] = d
		}
	}
	for _, n := range s.Networks {
		stats.Aggregate(n)
	}

	for _, srv := range s.Servers {
		if srv.Stats != nil {
			srv.Stats.Normalize()
		}
	}
}

// AllSubnets returns the subnets of all shared networks followed by the
// top-level subnets.
func (s *Snapshot) AllSubnets() []*stats.Subnet {
	var all []*stats.Subnet
	for _, n := range s.Networks {
		all = append(all, n.Subnets...)
	}
	return append(all, s.Subnets...)
}

// Subnet returns the combined statistics of a subnet.
func (s *Snapshot) Subnet(id int64) (*stats.Subnet, bool) {
	for _, sub := range s.AllSubnets() {
		if sub.ID == id {
			return sub, true
		}
	}
	return nil, false
}

func (s *Snapshot) keaServers() []keaconfig.Server {
	servers := make([]keaconfig.Server, len(s.Servers))
	for i, srv := range s.Servers {
		servers[i] = keaconfig.Server{Name: srv.Name, Config: srv.Config}
	}
	return servers
}

// SubnetParameters resolves the parameters of a subnet on every server.
func (s *Snapshot) SubnetParameters(id int64, opts params.Options) []params.Row {
	return params.Resolve(keaconfig.Levels, keaconfig.SubnetDataSets(s.keaServers(), id), opts)
}

// GlobalParameters resolves the global parameters of every server.
func (s *Snapshot) GlobalParameters(opts params.Options) []params.Row {
	return params.Resolve(keaconfig.GlobalLevels, keaconfig.GlobalDataSets(s.keaServers()), opts)
}

// SubnetPools returns the grouped pools of a subnet. Pools configured
// identically on several servers are listed once.
func (s *Snapshot) SubnetPools(id int64) ([]pools.Group[pools.AddressPool], []pools.Group[pools.PrefixPool]) {
	var (
		addresses []pools.AddressPool
		prefixes  []pools.PrefixPool
	)
	seenAddr := make(map[pools.AddressPool]bool)
	seenPrefix := make(map[pools.PrefixPool]bool)

	for _, srv := range s.Servers {
		if srv.Config == nil {
			continue
		}
		subnet, _, ok := srv.Config.FindSubnet(id)
		if !ok {
			continue
		}
		for _, p := range subnet.Pools {
			if !seenAddr[p] {
				seenAddr[p] = true
				addresses = append(addresses, p)
			}
		}
		for _, p := range subnet.PrefixPools {
			if !seenPrefix[p] {
				seenPrefix[p] = true
				prefixes = append(prefixes, p)
			}
		}
	}
	return pools.GroupAddressPools(addresses), pools.GroupPrefixPools(prefixes)
}
