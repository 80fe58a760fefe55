// Document value model.
//
// A Document is a recursive JSON value: nil, bool, float64, string,
// time.Time (the Date extension), []any, or map[string]any. Doc is the
// top-level object form every stored document takes. undefinedSentinel
// stands in for "field not present" so it can participate in the total
// order from compare.go without colliding with a real nil/null value.
package holodoc

import (
	"crypto/rand"
	"strings"
)

// Doc is a top-level document: a JSON object with a mandatory "_id" key.
type Doc = map[string]any

type undefined struct{}

// undefinedSentinel is the value getPath returns for a missing
// path segment. It is distinct from nil (JSON null).
var undefinedSentinel = undefined{}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const idLength = 16

// newDocID generates a 16-character random alphanumeric string, the
// default form of a document's _id (see DESIGN.md Open Question on the
// "128 random bits" wording).
func newDocID() string {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read on the standard reader only fails if the OS
		// entropy source is unavailable, which makes the process
		// unusable regardless; surface it loudly rather than silently
		// degrading _id uniqueness.
		panic("holodoc: crypto/rand unavailable: " + err.Error())
	}
	var sb strings.Builder
	sb.Grow(idLength)
	for _, b := range buf {
		sb.WriteByte(idAlphabet[int(b)%len(idAlphabet)])
	}
	return sb.String()
}

// deepCopy recursively clones a document value so callers cannot mutate
// cached state through a returned reference.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// isObject reports whether v is a JSON object value.
func isObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// isArray reports whether v is a JSON array value.
func isArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}
