// Update modifiers.
//
// An update document is either all-operator ($set, $inc, ...) or
// no-operator (a replacement document); mixing the two fails with
// ModifierMalformed (§4.1). applyUpdate returns a new document — the
// candidate is never mutated in place, so a failed or rolled-back
// update never corrupts the caller's copy.
package holodoc

import "fmt"

// applyUpdate computes the result of applying updateDoc to candidate.
// The replacement form always carries _id forward; preserveCreatedAt
// additionally carries createdAt forward when timestamps are enabled.
func applyUpdate(candidate Doc, updateDoc map[string]any, preserveCreatedAt bool) (Doc, error) {
	isModifier := hasDollarKey(updateDoc)
	if isModifier && !allDollarKeys(updateDoc) {
		return nil, newErr(ModifierMalformed, "update document mixes operator and non-operator keys")
	}

	if !isModifier {
		out := deepCopy(updateDoc).(Doc)
		out["_id"] = candidate["_id"]
		if preserveCreatedAt {
			if ca, ok := candidate["createdAt"]; ok {
				out["createdAt"] = ca
			}
		}
		if err := checkObject(out); err != nil {
			return nil, err
		}
		return out, nil
	}

	out := deepCopy(candidate).(Doc)
	for opName, arg := range updateDoc {
		fields, ok := arg.(map[string]any)
		if !ok {
			return nil, newErr(ModifierMalformed, opName+" requires an object of field:value pairs")
		}
		if err := applyModifier(out, opName, fields); err != nil {
			return nil, err
		}
	}
	if err := checkObject(out); err != nil {
		return nil, err
	}
	return out, nil
}

func applyModifier(doc Doc, opName string, fields map[string]any) error {
	for path, arg := range fields {
		var err error
		switch opName {
		case "$set":
			setPath(doc, path, deepCopy(arg))
		case "$unset":
			deletePath(doc, path)
		case "$inc":
			err = modInc(doc, path, arg)
		case "$push":
			err = modPush(doc, path, arg)
		case "$addToSet":
			err = modAddToSet(doc, path, arg)
		case "$pop":
			err = modPop(doc, path, arg)
		case "$pull":
			err = modPull(doc, path, arg)
		case "$min":
			err = modMinMax(doc, path, arg, true)
		case "$max":
			err = modMinMax(doc, path, arg, false)
		default:
			err = newErr(ModifierMalformed, "unknown modifier \""+opName+"\"")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func modInc(doc Doc, path string, arg any) error {
	delta := toFloat(arg)
	if _, ok := arg.(float64); !ok {
		if _, ok := arg.(int); !ok {
			return newErr(ModifierMalformed, "$inc requires a numeric argument")
		}
	}
	cur, ok := getOwn(doc, path)
	base := 0.0
	if ok {
		f, isNum := cur.(float64)
		if !isNum {
			return newErr(ModifierMalformed, fmt.Sprintf("$inc target %q is not numeric", path))
		}
		base = f
	}
	setPath(doc, path, base+delta)
	return nil
}

func modPush(doc Doc, path string, arg any) error {
	values, slice, hasSlice, err := pushArgs(arg)
	if err != nil {
		return err
	}
	arr := currentArray(doc, path)
	arr = append(arr, values...)
	if hasSlice {
		arr = applySlice(arr, slice)
	}
	setPath(doc, path, arr)
	return nil
}

func pushArgs(arg any) (values []any, slice int, hasSlice bool, err error) {
	if m, ok := arg.(map[string]any); ok && hasDollarKey(m) {
		each, ok := m["$each"].([]any)
		if !ok {
			return nil, 0, false, newErr(ModifierMalformed, "$push with modifiers requires $each")
		}
		values = each
		if s, ok := m["$slice"]; ok {
			slice = int(toFloat(s))
			hasSlice = true
		}
		return values, slice, hasSlice, nil
	}
	return []any{arg}, 0, false, nil
}

func applySlice(arr []any, n int) []any {
	switch {
	case n >= 0 && n < len(arr):
		return arr[:n]
	case n < 0 && -n < len(arr):
		return arr[len(arr)+n:]
	case n < 0:
		return arr
	default:
		return arr
	}
}

func currentArray(doc Doc, path string) []any {
	cur, ok := getOwn(doc, path)
	if !ok {
		return nil
	}
	arr, _ := cur.([]any)
	return append([]any{}, arr...)
}

func modAddToSet(doc Doc, path string, arg any) error {
	var values []any
	if m, ok := arg.(map[string]any); ok && hasDollarKey(m) {
		each, ok := m["$each"].([]any)
		if !ok {
			return newErr(ModifierMalformed, "$addToSet with modifiers requires $each")
		}
		values = each
	} else {
		values = []any{arg}
	}

	arr := currentArray(doc, path)
	for _, v := range values {
		if !containsEqual(arr, v) {
			arr = append(arr, v)
		}
	}
	setPath(doc, path, arr)
	return nil
}

func containsEqual(arr []any, v any) bool {
	for _, el := range arr {
		if equal(el, v) {
			return true
		}
	}
	return false
}

func modPop(doc Doc, path string, arg any) error {
	n := toFloat(arg)
	arr := currentArray(doc, path)
	if len(arr) == 0 {
		return nil
	}
	switch {
	case n > 0:
		arr = arr[:len(arr)-1]
	case n < 0:
		arr = arr[1:]
	default:
		return newErr(ModifierMalformed, "$pop requires 1 or -1")
	}
	setPath(doc, path, arr)
	return nil
}

// modPull removes array elements matching arg. Per the Open Question
// resolution in DESIGN.md, only equality matching is supported: a
// primitive arg removes equal elements; an object arg removes elements
// whose named fields are all equal (shallow, no nested operators).
func modPull(doc Doc, path string, arg any) error {
	arr := currentArray(doc, path)
	if arr == nil {
		return nil
	}
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		if !pullMatches(el, arg) {
			out = append(out, el)
		}
	}
	setPath(doc, path, out)
	return nil
}

func pullMatches(el, arg any) bool {
	argObj, ok := arg.(map[string]any)
	if !ok {
		return equal(el, arg)
	}
	elObj, ok := el.(map[string]any)
	if !ok {
		return false
	}
	for k, want := range argObj {
		got, present := elObj[k]
		if !present || !equal(got, want) {
			return false
		}
	}
	return true
}

func modMinMax(doc Doc, path string, arg any, isMin bool) error {
	cur, ok := getOwn(doc, path)
	if !ok {
		setPath(doc, path, arg)
		return nil
	}
	c := compare(arg, cur)
	if (isMin && c < 0) || (!isMin && c > 0) {
		setPath(doc, path, arg)
	}
	return nil
}
