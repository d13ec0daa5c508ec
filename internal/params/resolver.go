// Package params resolves configuration parameters that are inherited
// through several configuration levels, for instance subnet, shared
// network and global scope of a DHCP server.
package params

import (
	"slices"
	"sort"

	"keaview/internal/naming"
)

// DataSet holds the per-level parameters of one named source, usually one
// server. Parameters are ordered from the most to the least specific
// level; nil entries are levels where nothing is configured.
type DataSet struct {
	Name       string
	Parameters []*Object
}

// Options tune Resolve.
type Options struct {
	// Excluded keys are left out. Hyphenated and camelCase spellings
	// match each other.
	Excluded []string
	// KeepStructured keeps list and map values as they are instead of
	// rendering them with Format.
	KeepStructured bool
}

// Cell is the resolution of one parameter for one data set.
type Cell struct {
	// Effective is the value from the most specific level that sets it.
	Effective Value
	// Level names the level Effective comes from, empty if none.
	Level string
	// Values holds the value at every level, null where not set.
	Values []Value
}

// Row is one parameter across all data sets.
type Row struct {
	Key   string
	Name  string
	Cells []Cell
}

// Divergent reports whether the data sets disagree on the effective value.
func (r Row) Divergent() bool {
	for i := 1; i < len(r.Cells); i++ {
		if !r.Cells[i].Effective.Equal(r.Cells[0].Effective) {
			return true
		}
	}
	return false
}

// Resolve produces one row per distinct parameter found in any data set
// and level, sorted by human readable name. Hyphenated and camelCase
// spellings of a key share a row, keyed by the first spelling seen.
func Resolve(levels []string, data []DataSet, opts Options) []Row {
	excluded := make(map[string]bool, len(opts.Excluded))
	for _, k := range opts.Excluded {
		excluded[naming.HyphenToCamel(k)] = true
	}

	var canonical []string
	spellings := make(map[string][]string)
	for _, ds := range data {
		for _, obj := range ds.Parameters {
			for _, k := range obj.Keys() {
				c := naming.HyphenToCamel(k)
				if excluded[c] || slices.Contains(spellings[c], k) {
					continue
				}
				if spellings[c] == nil {
					canonical = append(canonical, c)
				}
				spellings[c] = append(spellings[c], k)
			}
		}
	}

	rows := make([]Row, 0, len(canonical))
	for _, c := range canonical {
		keys := spellings[c]
		row := Row{
			Key:   keys[0],
			Name:  naming.Humanize(keys[0]),
			Cells: make([]Cell, len(data)),
		}
		for i, ds := range data {
			row.Cells[i] = resolveCell(keys, levels, ds, opts.KeepStructured)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func resolveCell(keys []string, levels []string, ds DataSet, keepStructured bool) Cell {
	cell := Cell{Values: make([]Value, len(levels))}
	found := false
	for i := range levels {
		if i >= len(ds.Parameters) {
			break
		}
		v, ok := lookup(ds.Parameters[i], keys)
		if !ok {
			continue
		}
		if !keepStructured && !v.IsScalar() {
			v = StringValue(Format(v))
		}
		cell.Values[i] = v
		if !found {
			found = true
			cell.Effective = v
			cell.Level = levels[i]
		}
	}
	return cell
}

// lookup returns the first non-null value stored under any of keys.
func lookup(obj *Object, keys []string) (Value, bool) {
	for _, k := range keys {
		if v, ok := obj.Get(k); ok && !v.IsNull() {
			return v, true
		}
	}
	return Value{}, false
}
