package lineprotocol

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"keaview/internal/kea"
	"keaview/internal/stats"
)

var poolRe = regexp.MustCompile(`^(pool|pd-pool)\[(\d+)\]\.(.+)$`)

// Format converts parsed Kea stats into InfluxDB line protocol output.
// Returns one line for global stats and one line per subnet. The
// measurement is kea_<service>, for instance kea_dhcp4.
func Format(s *kea.Stats, server, service string) string {
	measurement := "kea_" + service
	var lines []string

	// Global stats line
	if line := formatLine(measurement, server, "", s.Global); line != "" {
		lines = append(lines, line)
	}

	// Per-subnet lines, sorted by subnet ID numerically
	for _, id := range sortedSubnetIDs(s.Subnets) {
		fields := s.Subnets[id]
		if line := formatLine(measurement, server, strconv.FormatInt(id, 10), fields); line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

func formatLine(measurement, server, subnetID string, fields stats.Statistics) string {
	// Build fields with cleaned names, sorted for deterministic output
	fieldParts := make([]string, 0, len(fields))
	for name, value := range fields {
		formatted, ok := formatValue(value)
		if !ok {
			continue
		}
		fieldParts = append(fieldParts, cleanFieldName(name)+"="+formatted)
	}
	if len(fieldParts) == 0 {
		return ""
	}
	sort.Strings(fieldParts)

	// Build tags
	tags := fmt.Sprintf("%s,server=%s", measurement, escapeTagValue(server))
	if subnetID != "" {
		tags += fmt.Sprintf(",subnet_id=%s", subnetID)
	}

	return tags + " " + strings.Join(fieldParts, ",")
}

// formatValue renders a counter as an integer field when it fits int64,
// as an unsigned field when it fits uint64, and as a float otherwise.
// Non-numeric values are skipped.
func formatValue(v any) (string, bool) {
	n, ok := stats.Counter(v)
	if !ok {
		return "", false
	}
	switch {
	case n.IsInt64():
		return fmt.Sprintf("%di", n.Int64()), true
	case n.IsUint64():
		return fmt.Sprintf("%du", n.Uint64()), true
	}
	f, _ := stats.Float(n)
	if math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}

// cleanFieldName transforms Kea stat names into InfluxDB-safe field names.
//
//	"pkt4-received"                    → "pkt4_received"
//	"pool[0].total-addresses"          → "pool0_total_addresses"
//	"pd-pool[1].assigned-pds"          → "pd_pool1_assigned_pds"
func cleanFieldName(name string) string {
	// Handle pool[N].field → poolN_field
	if matches := poolRe.FindStringSubmatch(name); matches != nil {
		name = fmt.Sprintf("%s%s_%s", matches[1], matches[2], matches[3])
	}

	// Replace dashes with underscores
	return strings.ReplaceAll(name, "-", "_")
}

func sortedSubnetIDs(subnets map[int64]stats.Statistics) []int64 {
	ids := make([]int64, 0, len(subnets))
	for id := range subnets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// escapeTagValue escapes special characters in InfluxDB line protocol tag values.
func escapeTagValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, " ", `\ `)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "=", `\=`)
	return s
}
