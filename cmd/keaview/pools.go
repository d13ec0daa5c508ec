package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"keaview/internal/inspect"
	"keaview/internal/pools"
	"keaview/internal/stats"
)

var poolsOpts struct {
	Subnet int64
}

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "Show the pools of a subnet with their utilization",
	RunE:  runPools,
}

func init() {
	poolsCmd.Flags().Int64Var(&poolsOpts.Subnet, "subnet", 0, "Subnet ID (required)")
	_ = poolsCmd.MarkFlagRequired("subnet")

	rootCmd.AddCommand(poolsCmd)
}

func runPools(cmd *cobra.Command, args []string) error {
	snap := inspect.Fetch(cmd.Context(), targets(), cfg.Service)
	if err := requireAnyServer(snap); err != nil {
		return err
	}

	sub, ok := snap.Subnet(poolsOpts.Subnet)
	if !ok {
		return fmt.Errorf("subnet %d is not configured on any server", poolsOpts.Subnet)
	}
	addrGroups, prefixGroups := snap.SubnetPools(sub.ID)
	writePools(os.Stdout, sub, addrGroups, prefixGroups)
	return nil
}

func writePools(out io.Writer, sub *stats.Subnet, addrGroups []pools.Group[pools.AddressPool], prefixGroups []pools.Group[pools.PrefixPool]) {
	fmt.Fprintf(out, "Subnet %d %s", sub.ID, sub.Prefix)
	if sub.SharedNetwork != "" {
		fmt.Fprintf(out, " (shared network %s)", sub.SharedNetwork)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POOL ID\tFAMILY\tPOOL\tTOTAL\tASSIGNED\tUTILIZATION")
	for _, g := range addrGroups {
		for _, p := range g.Pools {
			total, assigned := poolCounters(sub.Stats, "pool", g.PoolID, "addresses", "nas")
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", g.PoolID, g.Family, p.Pool,
				counterText(total), counterText(assigned), utilizationText(assigned, total))
		}
	}
	for _, g := range prefixGroups {
		for _, p := range g.Pools {
			total, assigned := poolCounters(sub.Stats, "pd-pool", g.PoolID, "pds")
			name := fmt.Sprintf("%s delegated /%d", p.Prefix, p.DelegatedLength)
			if p.ExcludedPrefix != "" {
				name += " excluded " + p.ExcludedPrefix
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", g.PoolID, g.Family, name,
				counterText(total), counterText(assigned), utilizationText(assigned, total))
		}
	}
	w.Flush()

	for _, fam := range []stats.CounterFamily{stats.AddressCounters, stats.PrefixCounters} {
		if oop, present := stats.OutOfPool(sub.Stats, fam); present {
			total, assigned := firstCounter(oop, "total"), firstCounter(oop, "assigned")
			fmt.Fprintf(out, "Out of pool: %s of %s assigned (%s)\n",
				counterText(assigned), counterText(total), utilizationText(assigned, total))
		}
	}
}

// poolCounters looks up the per-pool counters Kea reports as
// "pool[N].total-addresses". Pool-level counters are per pool ID.
func poolCounters(s stats.Statistics, prefix string, id int64, kinds ...string) (total, assigned any) {
	for _, kind := range kinds {
		key := fmt.Sprintf("%s[%d].", prefix, id)
		if v, ok := s[key+"total-"+kind]; ok {
			return v, s[key+"assigned-"+kind]
		}
	}
	return nil, nil
}

func firstCounter(s stats.Statistics, prefix string) any {
	for k, v := range s {
		if strings.HasPrefix(k, prefix) {
			return v
		}
	}
	return nil
}

func counterText(v any) string {
	if n, ok := stats.Counter(v); ok {
		return n.String()
	}
	return "-"
}

func utilizationText(assigned, total any) string {
	if _, ok := stats.Counter(total); !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", stats.Utilization(assigned, total))
}

func requireAnyServer(snap *inspect.Snapshot) error {
	for _, s := range snap.Servers {
		if s.Err == nil {
			return nil
		}
	}
	return errors.New("no server could be queried")
}
