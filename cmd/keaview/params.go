package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"keaview/internal/inspect"
	"keaview/internal/naming"
	"keaview/internal/params"
)

// zoneKeys hold DNS zone names, shown with the root zone spelled out.
var zoneKeys = map[string]bool{
	"ddns-qualifying-suffix": true,
	"ddnsQualifyingSuffix":   true,
}

var paramsOpts struct {
	Subnet   int64
	Exclude  []string
	Levels   bool
	DiffOnly bool
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show effective configuration parameters across servers",
	Long: `Show configuration parameters of a subnet, or the global parameters,
as configured on every server. For a subnet, the effective value is taken
from the most specific level (subnet, shared network, global) that sets it.`,
	RunE: runParams,
}

func init() {
	paramsCmd.Flags().Int64Var(&paramsOpts.Subnet, "subnet", 0, "Subnet ID; global parameters when 0")
	paramsCmd.Flags().StringSliceVar(&paramsOpts.Exclude, "exclude", nil, "Parameters to hide")
	paramsCmd.Flags().BoolVar(&paramsOpts.Levels, "levels", false, "Show the value at every level")
	paramsCmd.Flags().BoolVar(&paramsOpts.DiffOnly, "diff", false, "Only show parameters that differ between servers")

	rootCmd.AddCommand(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	snap := inspect.Fetch(cmd.Context(), targets(), cfg.Service)
	if err := requireAnyServer(snap); err != nil {
		return err
	}

	resolveOpts := params.Options{Excluded: append(cfg.Excluded, paramsOpts.Exclude...)}
	var rows []params.Row
	if paramsOpts.Subnet == 0 {
		rows = snap.GlobalParameters(resolveOpts)
	} else {
		if _, ok := snap.Subnet(paramsOpts.Subnet); !ok {
			return fmt.Errorf("subnet %d is not configured on any server", paramsOpts.Subnet)
		}
		rows = snap.SubnetParameters(paramsOpts.Subnet, resolveOpts)
	}

	if paramsOpts.DiffOnly {
		filtered := rows[:0]
		for _, r := range rows {
			if r.Divergent() {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	names := make([]string, len(snap.Servers))
	for i, s := range snap.Servers {
		names[i] = s.Name
	}
	writeParams(os.Stdout, names, rows, paramsOpts.Levels)
	return nil
}

func writeParams(out io.Writer, servers []string, rows []params.Row, levels bool) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No parameters.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "PARAMETER\t%s\n", strings.Join(servers, "\t"))
	for _, r := range rows {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = cellText(r.Key, c, levels)
		}
		marker := ""
		if r.Divergent() {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\n", r.Name, marker, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func cellText(key string, c params.Cell, levels bool) string {
	if c.Level == "" {
		return "-"
	}
	text := valueText(key, c.Effective)
	if !levels {
		return fmt.Sprintf("%s (%s)", text, c.Level)
	}
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		if v.IsNull() {
			parts[i] = "-"
		} else {
			parts[i] = valueText(key, v)
		}
	}
	return strings.Join(parts, " | ")
}

func valueText(key string, v params.Value) string {
	if zoneKeys[key] {
		if zone, ok := v.Str(); ok {
			return naming.Unroot(zone)
		}
	}
	return oneLine(params.Format(v))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
