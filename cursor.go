// Query cursor: sort, skip, limit, projection.
//
// Cursor is a lazy builder, grounded on clover's IterateDocs branching
// (other_examples/ostafen-clover__inmem.go.go): every match is
// collected first, then sorted when a sort is requested, then sliced by
// skip/limit. The match walk does not stop early once a limit is
// reached, with or without a sort.
package holodoc

import "slices"

// SortSpec is one field of a compound sort, ordered by precedence.
type SortSpec struct {
	Field     string
	Ascending bool
}

// Cursor accumulates find() options before Exec produces results.
type Cursor struct {
	source     func() []Doc
	sortSpecs  []SortSpec
	limitN     int
	skipN      int
	projection map[string]int
	hasLimit   bool
}

func newCursor(source func() []Doc) *Cursor {
	return &Cursor{source: source}
}

// Sort appends a compound sort key. Later calls add secondary keys.
func (c *Cursor) Sort(specs ...SortSpec) *Cursor {
	c.sortSpecs = append(c.sortSpecs, specs...)
	return c
}

// Skip discards the first n results.
func (c *Cursor) Skip(n int) *Cursor {
	c.skipN = n
	return c
}

// Limit caps the result count at n.
func (c *Cursor) Limit(n int) *Cursor {
	c.limitN = n
	c.hasLimit = true
	return c
}

// Projection restricts returned fields. A projection is either
// all-pick (values 1) or all-omit (values 0), never mixed, except that
// "_id" may always be set to 0 alongside a pick projection to exclude
// it explicitly (§4.5).
func (c *Cursor) Projection(fields map[string]int) *Cursor {
	c.projection = fields
	return c
}

// Exec runs the cursor: matched documents in the requested order,
// deep-copied so callers can't mutate stored state through the result.
func (c *Cursor) Exec() ([]Doc, error) {
	docs := c.source()

	if len(c.sortSpecs) > 0 {
		slices.SortFunc(docs, func(a, b Doc) int {
			for _, spec := range c.sortSpecs {
				av, okA := getOwn(a, spec.Field)
				if !okA {
					av = undefinedSentinel
				}
				bv, okB := getOwn(b, spec.Field)
				if !okB {
					bv = undefinedSentinel
				}
				c := compare(av, bv)
				if !spec.Ascending {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}
	docs = applySkipLimit(docs, c.skipN, c.limitN, c.hasLimit)

	if c.projection != nil {
		out := make([]Doc, len(docs))
		for i, d := range docs {
			proj, err := applyProjection(d, c.projection)
			if err != nil {
				return nil, err
			}
			out[i] = proj
		}
		return out, nil
	}

	out := make([]Doc, len(docs))
	for i, d := range docs {
		out[i] = deepCopy(d).(Doc)
	}
	return out, nil
}

func has(doc Doc, field string) bool {
	_, ok := getOwn(doc, field)
	return ok
}

func applySkipLimit(docs []Doc, skip, limit int, hasLimit bool) []Doc {
	if skip > 0 {
		if skip >= len(docs) {
			return nil
		}
		docs = docs[skip:]
	}
	if hasLimit && limit < len(docs) {
		if limit < 0 {
			limit = 0
		}
		docs = docs[:limit]
	}
	return docs
}

// applyProjection validates fields is either all-pick or all-omit
// (ProjectionMalformed otherwise) and returns a deep-copied, restricted
// view of doc.
func applyProjection(doc Doc, fields map[string]int) (Doc, error) {
	mode, err := projectionMode(fields)
	if err != nil {
		return nil, err
	}

	copied := deepCopy(doc).(Doc)
	out := Doc{}

	switch mode {
	case projectionPick:
		for field, want := range fields {
			if want == 0 {
				continue // "_id": 0 alongside a pick projection
			}
			if v, ok := getOwn(copied, field); ok {
				setPath(out, field, v)
			}
		}
		if omit, ok := fields["_id"]; !ok || omit != 0 {
			if id, ok := copied["_id"]; ok {
				out["_id"] = id
			}
		}
	case projectionOmit:
		for k, v := range copied {
			out[k] = v
		}
		for field, want := range fields {
			if want == 0 {
				deletePath(out, field)
			}
		}
	default:
		return copied, nil
	}
	return out, nil
}

type projKind int

const (
	projectionNone projKind = iota
	projectionPick
	projectionOmit
)

func projectionMode(fields map[string]int) (projKind, error) {
	if len(fields) == 0 {
		return projectionNone, nil
	}
	hasPick, hasOmit := false, false
	for field, v := range fields {
		if v != 0 {
			hasPick = true
		} else if field != "_id" {
			hasOmit = true
		}
	}
	if hasPick && hasOmit {
		return projectionNone, newErr(ProjectionMalformed, "cannot mix inclusion and exclusion outside of _id")
	}
	if hasPick {
		return projectionPick, nil
	}
	return projectionOmit, nil
}
