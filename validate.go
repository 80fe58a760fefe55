// Document key validation.
//
// checkObject enforces §4.1's "Check-object" rule recursively: no key
// may start with '$' or contain '.'. It runs on every document accepted
// for storage, after modifiers have been applied, so a modifier cannot
// smuggle an invalid key into persisted state.
package holodoc

import "strings"

func checkObject(v any) error {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if strings.HasPrefix(k, "$") {
				return newErr(FieldNameInvalid, "key \""+k+"\" begins with '$'")
			}
			if strings.Contains(k, ".") {
				return newErr(FieldNameInvalid, "key \""+k+"\" contains '.'")
			}
			if err := checkObject(val); err != nil {
				return err
			}
		}
	case []any:
		for _, val := range t {
			if err := checkObject(val); err != nil {
				return err
			}
		}
	}
	return nil
}
