package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"keaview/internal/config"
	"keaview/internal/inspect"
	"keaview/internal/kea"
	"keaview/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitError       = 1
	exitConfigError = 10
)

type flags struct {
	ConfigFile string
	URL        string
	Targets    []string
	Service    string
	Timeout    time.Duration
	LogLevel   string
	LogJSON    bool
}

var (
	opts flags
	cfg  *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "keaview",
	Short: "Inspect configuration and statistics of Kea DHCP servers",
	Long: `Inspect configuration and statistics of one or more Kea DHCP servers
through their Control Agents.

Examples:
  # Statistics of the local server in InfluxDB line protocol
  keaview stats

  # Parameters of subnet 5 on an HA pair
  keaview params --subnet 5 -T primary=http://10.0.0.1:8000/ -T standby=http://10.0.0.2:8000/`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	pf.StringVarP(&opts.URL, "url", "u", "http://localhost:8000/", "Kea Control Agent URL, used when no target is given")
	pf.StringArrayVarP(&opts.Targets, "target", "T", nil, "Server to query as name=url (repeatable)")
	pf.StringVar(&opts.Service, "service", "", "Kea service to query (dhcp4 or dhcp6)")
	pf.DurationVarP(&opts.Timeout, "timeout", "t", 0, "HTTP request timeout")
	pf.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&opts.LogJSON, "log-json", false, "Log in JSON format")

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitError)
	}
}

// setup loads the configuration, applies flags on top of it and
// initializes logging.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(exitConfigError)
	}
	cfg = loaded

	pf := cmd.Flags()
	if pf.Changed("service") {
		cfg.Service = opts.Service
	}
	if pf.Changed("timeout") {
		cfg.Timeout = opts.Timeout
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if pf.Changed("log-json") {
		cfg.LogJSON = opts.LogJSON
	}
	if len(opts.Targets) > 0 {
		cfg.Servers = nil
		for _, t := range opts.Targets {
			srv, err := config.ParseServer(t)
			if err != nil {
				fmt.Fprintf(os.Stderr, "config error: %v\n", err)
				os.Exit(exitConfigError)
			}
			cfg.Servers = append(cfg.Servers, srv)
		}
	}
	if len(opts.Targets) == 0 && (len(cfg.Servers) == 0 || pf.Changed("url")) {
		hostname, _ := os.Hostname()
		cfg.Servers = []config.Server{{Name: hostname, URL: opts.URL}}
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(exitConfigError)
	}
	return nil
}

func newClient(url string) *kea.Client {
	client := kea.NewClient(url, cfg.Timeout)
	client.Retries = cfg.Retries
	return client
}

func targets() []inspect.Target {
	out := make([]inspect.Target, len(cfg.Servers))
	for i, s := range cfg.Servers {
		out[i] = inspect.Target{Name: s.Name, Client: newClient(s.URL)}
	}
	return out
}
