// Package exporter exposes fleet statistics as Prometheus metrics.
package exporter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keaview/internal/inspect"
	"keaview/internal/log"
	"keaview/internal/stats"
)

const namespace = "keaview"

var subnetLabels = []string{"subnet_id", "prefix", "shared_network"}

var (
	serverUp = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "server_up"),
		"Whether the server answered the last query (1 = up, 0 = down)",
		[]string{"server"}, nil,
	)
	addressesTotal = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "subnet", "addresses_total"),
		"Total number of addresses or NAs in the subnet pools",
		subnetLabels, nil,
	)
	addressesAssigned = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "subnet", "addresses_assigned"),
		"Number of assigned addresses or NAs",
		subnetLabels, nil,
	)
	addressesDeclined = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "subnet", "addresses_declined"),
		"Number of declined addresses or NAs",
		subnetLabels, nil,
	)
	utilization = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "subnet", "utilization_percent"),
		"Assigned addresses as a percentage of the total",
		subnetLabels, nil,
	)
	divergences = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "subnet", "divergent_counters"),
		"Number of counters the servers serving the subnet disagree on",
		subnetLabels, nil,
	)
	scrapeDuration = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "scrape_duration_seconds"),
		"Time spent querying all servers",
		nil, nil,
	)
)

// SnapshotFunc returns a fresh snapshot of the fleet.
type SnapshotFunc func(ctx context.Context) *inspect.Snapshot

// Collector queries the fleet on every scrape.
type Collector struct {
	snapshot SnapshotFunc
	timeout  time.Duration
}

// NewCollector creates a collector. timeout bounds each scrape.
func NewCollector(snapshot SnapshotFunc, timeout time.Duration) *Collector {
	return &Collector{snapshot: snapshot, timeout: timeout}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- serverUp
	ch <- addressesTotal
	ch <- addressesAssigned
	ch <- addressesDeclined
	ch <- utilization
	ch <- divergences
	ch <- scrapeDuration
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	snap := c.snapshot(ctx)
	ch <- prometheus.MustNewConstMetric(scrapeDuration, prometheus.GaugeValue, time.Since(start).Seconds())

	for _, srv := range snap.Servers {
		up := 1.0
		if srv.Err != nil {
			up = 0
		}
		ch <- prometheus.MustNewConstMetric(serverUp, prometheus.GaugeValue, up, srv.Name)
	}

	for _, sub := range snap.AllSubnets() {
		labels := []string{strconv.FormatInt(sub.ID, 10), sub.Prefix, sub.SharedNetwork}
		total, assigned, declined := addressCounters(sub.Stats)

		gauge(ch, addressesTotal, total, labels)
		gauge(ch, addressesAssigned, assigned, labels)
		gauge(ch, addressesDeclined, declined, labels)
		if total != nil {
			ch <- prometheus.MustNewConstMetric(utilization, prometheus.GaugeValue,
				stats.Utilization(assigned, total), labels...)
		}
		ch <- prometheus.MustNewConstMetric(divergences, prometheus.GaugeValue,
			float64(len(snap.Divergences[sub.ID])), labels...)
	}
}

// addressCounters picks the IPv4 address counters, falling back to the
// IPv6 NA counters.
func addressCounters(s stats.Statistics) (total, assigned, declined any) {
	if _, ok := s["total-addresses"]; ok {
		return s["total-addresses"], s["assigned-addresses"], s["declined-addresses"]
	}
	if _, ok := s["total-nas"]; ok {
		return s["total-nas"], s["assigned-nas"], s["declined-addresses"]
	}
	return nil, nil, nil
}

func gauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v any, labels []string) {
	f, ok := stats.Float(v)
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, f, labels...)
}

// Handler returns an HTTP handler serving the collector's metrics from
// a dedicated registry.
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog: promLogger{},
	})
}

type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	logger := log.WithComponent("exporter")
	logger.Error().Msg(fmt.Sprint(v...))
}
