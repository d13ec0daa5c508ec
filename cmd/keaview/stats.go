package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keaview/internal/lineprotocol"
	"keaview/internal/log"
)

var statsOpts struct {
	Server string
	JSON   bool
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Query Kea statistics and output InfluxDB line protocol",
	RunE:  runStats,
}

func init() {
	hostname, _ := os.Hostname()

	statsCmd.Flags().StringVarP(&statsOpts.Server, "server", "s", hostname, "Server tag for line protocol output")
	statsCmd.Flags().BoolVarP(&statsOpts.JSON, "json", "j", false, "Output raw Kea API JSON (debug mode)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsOpts.Server == "" {
		fmt.Fprintf(os.Stderr, "config error: --server is required\n")
		os.Exit(exitConfigError)
	}

	ctx := cmd.Context()
	logger := log.WithComponent("stats")

	for _, srv := range cfg.Servers {
		client := newClient(srv.URL)

		// JSON debug mode — print raw response and continue
		if statsOpts.JSON {
			raw, err := client.GetRawJSON(ctx, "statistic-get-all", cfg.Service)
			if err != nil {
				logger.Error().Err(err).Str("server", srv.Name).Msg("query failed")
				os.Exit(exitError)
			}
			var pretty json.RawMessage
			if err := json.Unmarshal(raw, &pretty); err == nil {
				formatted, _ := json.MarshalIndent(pretty, "", "  ")
				fmt.Println(string(formatted))
			} else {
				fmt.Println(string(raw))
			}
			continue
		}

		stats, err := client.GetStats(ctx, cfg.Service)
		if err != nil {
			logger.Error().Err(err).Str("server", srv.Name).Msg("query failed")
			os.Exit(exitError)
		}
		stats.Normalize()

		tag := statsOpts.Server
		if len(cfg.Servers) > 1 {
			tag = srv.Name
		}
		if output := lineprotocol.Format(stats, tag, cfg.Service); output != "" {
			fmt.Println(output)
		}
	}
	return nil
}
