package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"keaview/internal/log"
	"keaview/internal/versions"
)

var versionsOpts struct {
	File string
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Compare running Kea versions with known releases",
	RunE:  runVersions,
}

func init() {
	versionsCmd.Flags().StringVar(&versionsOpts.File, "versions-file", "", "YAML list of known releases")

	rootCmd.AddCommand(versionsCmd)
}

func loadChecker(path string) (*versions.Checker, error) {
	if path == "" {
		return versions.NewChecker(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening versions file: %w", err)
	}
	defer f.Close()

	md, err := versions.LoadMetadata(f)
	if err != nil {
		return nil, err
	}
	return versions.NewChecker(md), nil
}

func runVersions(cmd *cobra.Command, args []string) error {
	path := cfg.VersionsFile
	if cmd.Flags().Changed("versions-file") {
		path = versionsOpts.File
	}
	checker, err := loadChecker(path)
	if err != nil {
		return err
	}

	logger := log.WithComponent("versions")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVER\tVERSION\tSTATUS\tRECOMMENDED")
	for _, srv := range cfg.Servers {
		v, err := newClient(srv.URL).GetVersion(cmd.Context(), cfg.Service)
		if err != nil {
			logger.Warn().Err(err).Str("server", srv.Name).Msg("version query failed")
			fmt.Fprintf(w, "%s\t-\t%s\t-\n", srv.Name, versions.Unknown)
			continue
		}
		r := checker.Check("kea", v)
		latest := r.Latest
		if latest == "" {
			latest = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", srv.Name, v, r.Status, latest)
	}
	return w.Flush()
}
