// Total ordering over document values.
//
// Order is fixed by §3 of the specification:
// undefined < null < number < string < boolean < date < array < object.
// Within a type, values compare by the obvious rule except NaN, which
// compares equal only to itself; an NaN vs. non-NaN comparison still
// needs a definite answer to keep the order total, so NaN is treated as
// greater than every other number (arbitrary but consistent).
package holodoc

import (
	"math"
	"sort"
	"time"
)

func typeRank(v any) int {
	switch v.(type) {
	case undefined:
		return 0
	case nil:
		return 1
	case float64, int, int64:
		return 2
	case string:
		return 3
	case bool:
		return 4
	case time.Time:
		return 5
	case []any:
		return 6
	case map[string]any:
		return 7
	default:
		return 7
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return 0
	}
}

// compare returns -1, 0, or 1 comparing a and b under the total order.
func compare(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 0, 1:
		return 0 // undefined == undefined, null == null
	case 2:
		fa, fb := toFloat(a), toFloat(b)
		aNaN, bNaN := math.IsNaN(fa), math.IsNaN(fb)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case 3:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	case 4:
		ba, bb := a.(bool), b.(bool)
		if ba == bb {
			return 0
		}
		if !ba {
			return -1
		}
		return 1
	case 5:
		ta, tb := a.(time.Time), b.(time.Time)
		ma, mb := ta.UnixMilli(), tb.UnixMilli()
		switch {
		case ma < mb:
			return -1
		case ma > mb:
			return 1
		default:
			return 0
		}
	case 6:
		return compareArrays(a.([]any), b.([]any))
	default:
		return compareObjects(a.(map[string]any), b.(map[string]any))
	}
}

func compareArrays(a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// compareObjects orders objects "by enumerated pairs": keys sorted
// lexicographically, then values compared in that key order, with a
// shorter key list sorting before a longer one that shares its prefix.
func compareObjects(a, b map[string]any) int {
	ka := sortedKeys(a)
	kb := sortedKeys(b)
	n := len(ka)
	if len(kb) < n {
		n = len(kb)
	}
	for i := 0; i < n; i++ {
		if c := compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := compare(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	default:
		return 0
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// equal reports whether a and b compare equal under the total order.
func equal(a, b any) bool {
	return compare(a, b) == 0
}
