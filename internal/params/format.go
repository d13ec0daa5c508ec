package params

import (
	"encoding/json"
	"strconv"
	"strings"

	"keaview/internal/naming"
)

// Format renders a value for display. Lists become "[ a, b ]" and maps
// are pretty printed with human readable keys. Null renders empty.
func Format(v Value) string {
	switch v.kind {
	case Null:
		return ""
	case String, Number:
		return v.str
	case Bool:
		return strconv.FormatBool(v.b)
	case List:
		if len(v.list) == 0 {
			return "[ ]"
		}
		items := make([]string, len(v.list))
		for i, item := range v.list {
			if item.kind == Map {
				items[i] = pretty(item, "")
			} else {
				items[i] = Format(item)
			}
		}
		return "[ " + strings.Join(items, ", ") + " ]"
	}
	return pretty(v, "")
}

func pretty(v Value, indent string) string {
	switch v.kind {
	case String:
		q, _ := json.Marshal(v.str)
		return string(q)
	case List:
		if len(v.list) == 0 {
			return "[]"
		}
		var b strings.Builder
		b.WriteString("[\n")
		for i, item := range v.list {
			b.WriteString(indent + "  " + pretty(item, indent+"  "))
			if i < len(v.list)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent + "]")
		return b.String()
	case Map:
		keys := v.obj.Keys()
		if len(keys) == 0 {
			return "{}"
		}
		var b strings.Builder
		b.WriteString("{\n")
		for i, k := range keys {
			item, _ := v.obj.Get(k)
			q, _ := json.Marshal(naming.Humanize(k))
			b.WriteString(indent + "  " + string(q) + ": " + pretty(item, indent+"  "))
			if i < len(keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent + "}")
		return b.String()
	case Null:
		return "null"
	}
	return Format(v)
}
