// Append-only log serialization, replay, and compaction.
//
// Grounded on folio's repair.go scan-classify-rewrite loop, retargeted
// from byte-offset tag classification to JSON-shape classification: one
// NDJSON record per line, each either a document, a tombstone, or an
// index lifecycle marker. goccy/go-json does the encode/decode work the
// teacher used its own framed-record codec for.
package holodoc

import (
	"bytes"
	"time"

	json "github.com/goccy/go-json"
)

const dateKey = "$$date"

// tombstoneRecord marks a document deleted by _id (§4.3/§4.4: "_id" +
// "$$deleted":true). indexRecordOptions is the payload of a
// $$indexCreated line, replayed to rebuild Collection.indexes without
// the caller re-declaring every ensureIndex call on load.
type tombstoneRecord struct {
	ID      string `json:"_id"`
	Deleted bool   `json:"$$deleted"`
}

type indexRecordOptions struct {
	FieldName          string   `json:"fieldName"`
	Unique             bool     `json:"unique,omitempty"`
	Sparse             bool     `json:"sparse,omitempty"`
	ExpireAfterSeconds *float64 `json:"expireAfterSeconds,omitempty"`
}

// Hooks lets a caller transform a document's serialized bytes before
// they hit disk, and reverse the transform on load (e.g. at-rest
// encryption). Both functions must be supplied together, and
// beforeDeserialization(afterSerialization(x)) == x is checked at
// Collection open over a fixed probe plus several random strings; a
// mismatch fails with HookMisconfigured rather than
// silently corrupting data later.
type Hooks struct {
	AfterSerialization   func([]byte) []byte
	BeforeDeserialization func([]byte) []byte
}

func (h Hooks) validate() error {
	has1 := h.AfterSerialization != nil
	has2 := h.BeforeDeserialization != nil
	if has1 != has2 {
		return newErr(HookMisconfigured, "afterSerialization and beforeDeserialization must both be set or both unset")
	}
	if !has1 {
		return nil
	}
	probes := [][]byte{[]byte(`{"_id":"roundtrip-self-check","ok":true}`)}
	for i := 0; i < 8; i++ {
		probes = append(probes, []byte(newDocID()))
	}
	for _, probe := range probes {
		out := h.BeforeDeserialization(h.AfterSerialization(probe))
		if !bytes.Equal(out, probe) {
			return newErr(HookMisconfigured, "serialization hooks failed round-trip self-check")
		}
	}
	return nil
}

func encodeDoc(doc Doc) ([]byte, error) {
	return json.Marshal(wrapDates(doc))
}

func decodeDoc(line []byte) (Doc, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, err
	}
	return unwrapDates(raw).(map[string]any), nil
}

// wrapDates replaces every time.Time in v with {"$$date": millis}, the
// on-disk Date encoding (§4.3).
func wrapDates(v any) any {
	switch t := v.(type) {
	case time.Time:
		return map[string]any{dateKey: t.UnixMilli()}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = wrapDates(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = wrapDates(val)
		}
		return out
	default:
		return v
	}
}

// unwrapDates is wrapDates's inverse, run after json.Unmarshal produces
// plain map[string]any/float64 trees.
func unwrapDates(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if ms, ok := t[dateKey]; ok {
				if f, ok := ms.(float64); ok {
					return time.UnixMilli(int64(f)).UTC()
				}
			}
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = unwrapDates(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = unwrapDates(val)
		}
		return out
	default:
		return v
	}
}

// replayResult is what load-time log replay produces.
type replayResult struct {
	docs        map[string]Doc
	indexes     []IndexOptions
	corruptLines int
	totalLines   int
}

// defaultCorruptAlertThreshold matches spec.md §4.3/§7: replay tolerates
// up to 10% unparseable lines before refusing to open.
const defaultCorruptAlertThreshold = 0.1

// replayLog parses raw NDJSON bytes into the live document set and the
// sequence of index lifecycle events, tolerating a bounded fraction of
// corrupt lines (a partially-written trailing line from a crash mid
// Append).
func replayLog(data []byte, hooks Hooks, threshold float64) (*replayResult, error) {
	res := &replayResult{docs: map[string]Doc{}}
	if len(data) == 0 {
		return res, nil
	}

	lines := bytes.Split(data, []byte("\n"))
	indexState := map[string]IndexOptions{}
	var indexOrder []string

	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		res.totalLines++

		raw := line
		if hooks.BeforeDeserialization != nil {
			raw = hooks.BeforeDeserialization(raw)
		}

		var probe map[string]any
		if err := json.Unmarshal(raw, &probe); err != nil {
			res.corruptLines++
			continue
		}

		switch {
		case probe["$$deleted"] == true:
			id, _ := probe["_id"].(string)
			delete(res.docs, id)
		case probe["$$indexCreated"] != nil:
			m, _ := probe["$$indexCreated"].(map[string]any)
			opts := indexOptionsFromMap(m)
			if _, seen := indexState[opts.FieldName]; !seen {
				indexOrder = append(indexOrder, opts.FieldName)
			}
			indexState[opts.FieldName] = opts
		case probe["$$indexRemoved"] != nil:
			field, _ := probe["$$indexRemoved"].(string)
			delete(indexState, field)
		default:
			doc := unwrapDates(probe).(map[string]any)
			id, ok := doc["_id"].(string)
			if !ok {
				res.corruptLines++
				continue
			}
			res.docs[id] = doc
		}
	}

	if res.totalLines > 0 && float64(res.corruptLines)/float64(res.totalLines) > threshold {
		return nil, &Error{Kind: CorruptionThresholdExceeded, Ratio: float64(res.corruptLines) / float64(res.totalLines),
			Message: "too many corrupt lines during replay"}
	}

	for _, field := range indexOrder {
		if opts, ok := indexState[field]; ok {
			res.indexes = append(res.indexes, opts)
		}
	}
	return res, nil
}

func indexOptionsFromMap(m map[string]any) IndexOptions {
	opts := IndexOptions{}
	if v, ok := m["fieldName"].(string); ok {
		opts.FieldName = v
	}
	if v, ok := m["unique"].(bool); ok {
		opts.Unique = v
	}
	if v, ok := m["sparse"].(bool); ok {
		opts.Sparse = v
	}
	if v, ok := m["expireAfterSeconds"].(float64); ok {
		opts.ExpireAfterSeconds = &v
	}
	return opts
}

// appendDocLine serializes doc as one NDJSON line, applying the
// serialization hook if configured.
func appendDocLine(doc Doc, hooks Hooks) ([]byte, error) {
	b, err := encodeDoc(doc)
	if err != nil {
		return nil, err
	}
	if hooks.AfterSerialization != nil {
		b = hooks.AfterSerialization(b)
	}
	return append(b, '\n'), nil
}

func tombstoneLine(id string, hooks Hooks) ([]byte, error) {
	b, err := json.Marshal(tombstoneRecord{ID: id, Deleted: true})
	if err != nil {
		return nil, err
	}
	if hooks.AfterSerialization != nil {
		b = hooks.AfterSerialization(b)
	}
	return append(b, '\n'), nil
}

func indexCreatedLine(opts IndexOptions, hooks Hooks) ([]byte, error) {
	rec := map[string]any{"$$indexCreated": indexRecordOptions{
		FieldName: opts.FieldName, Unique: opts.Unique, Sparse: opts.Sparse,
		ExpireAfterSeconds: opts.ExpireAfterSeconds,
	}}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if hooks.AfterSerialization != nil {
		b = hooks.AfterSerialization(b)
	}
	return append(b, '\n'), nil
}

func indexRemovedLine(fieldName string, hooks Hooks) ([]byte, error) {
	rec := map[string]any{"$$indexRemoved": fieldName}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if hooks.AfterSerialization != nil {
		b = hooks.AfterSerialization(b)
	}
	return append(b, '\n'), nil
}

// buildCompactionPayload renders the full live state as a fresh NDJSON
// log: every current document, followed by one $$indexCreated line per
// non-_id index still defined. No tombstones, no history of past
// states — compaction's whole point is to discard everything that
// isn't live (DESIGN.md).
func buildCompactionPayload(docs []Doc, indexes []IndexOptions, hooks Hooks) ([]byte, error) {
	var buf bytes.Buffer
	for _, doc := range docs {
		line, err := appendDocLine(doc, hooks)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
	}
	for _, opts := range indexes {
		line, err := indexCreatedLine(opts, hooks)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}
