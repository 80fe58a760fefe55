// Dot-path resolution and mutation.
//
// getPath implements §4.1's "dot-path evaluation": walking a.b.c through
// nested objects, fanning out into an array of resolved values whenever
// an array is encountered partway through the path. setPath/deletePath
// thread a mutable reference through nested objects for modifiers,
// creating intermediate objects as needed (DESIGN NOTES §9).
package holodoc

import "strings"

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// getPath resolves a dot-path against a document value. found is false
// only when the path cannot be resolved at all (missing key on a plain
// object, or a non-object/non-array encountered with segments
// remaining). A resolved value of nil with found=true means the field
// is present and JSON null.
func getPath(value any, path string) (any, bool) {
	return resolve(value, splitPath(path))
}

func resolve(value any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return value, true
	}
	switch v := value.(type) {
	case map[string]any:
		child, ok := v[segments[0]]
		if !ok {
			return undefinedSentinel, false
		}
		return resolve(child, segments[1:])
	case []any:
		results := make([]any, len(v))
		any2 := false
		for i, el := range v {
			r, ok := resolve(el, segments)
			if ok {
				any2 = true
			} else {
				r = undefinedSentinel
			}
			results[i] = r
		}
		return results, any2 || len(v) == 0
	default:
		return undefinedSentinel, false
	}
}

// pathExists reports whether path resolves to a present field, without
// the array fan-out getPath performs — used by $exists, which must
// distinguish "this exact field is absent" from "some array element
// under a different shape lacks a deeper field".
func pathExists(value any, path string) bool {
	segments := splitPath(path)
	cur := value
	for i, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		child, ok := m[seg]
		if !ok {
			return false
		}
		if i == len(segments)-1 {
			return true
		}
		cur = child
	}
	return true
}

// setPath assigns value at path within doc, creating intermediate
// objects as needed. It does not descend through arrays: a dotted path
// targeting a segment inside an array element is not supported by the
// update modifiers (matches the modifier scope in §4.1).
func setPath(doc Doc, path string, value any) {
	segments := splitPath(path)
	cur := doc
	for i, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg]
		if !ok {
			m := Doc{}
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			m = Doc{}
			cur[seg] = m
		}
		cur = m
		_ = i
	}
	cur[segments[len(segments)-1]] = value
}

// getOwn resolves a dot-path without array fan-out, returning the raw
// value and whether every segment existed. Used where a modifier needs
// the literal current value (e.g. $inc, $push) rather than the
// array-fanned query-matching view.
func getOwn(doc Doc, path string) (any, bool) {
	segments := splitPath(path)
	var cur any = doc
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		child, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// deletePath removes the field at path from doc, if present.
func deletePath(doc Doc, path string) {
	segments := splitPath(path)
	cur := doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg]
		if !ok {
			return
		}
		m, ok := next.(map[string]any)
		if !ok {
			return
		}
		cur = m
	}
	delete(cur, segments[len(segments)-1])
}
