// Query evaluation.
//
// Plan.Match walks the parsed tree from query.go against one document.
// A document matches a Plan iff every clause matches (§4.1).
package holodoc

// Match reports whether doc satisfies the parsed query.
func (p *Plan) Match(doc Doc) bool {
	for _, c := range p.clauses {
		if !matchClause(c, doc) {
			return false
		}
	}
	return true
}

func matchClause(c clause, doc Doc) bool {
	switch c.kind {
	case clauseField:
		val, _ := getPath(doc, c.field)
		for _, op := range c.ops {
			if op.kind == opExists {
				if pathExists(doc, c.field) != op.arg.(bool) {
					return false
				}
				continue
			}
			if !matchOp(op, val) {
				return false
			}
		}
		return true
	case clauseOr:
		for _, sub := range c.subs {
			if sub.Match(doc) {
				return true
			}
		}
		return len(c.subs) == 0
	case clauseAnd:
		for _, sub := range c.subs {
			if !sub.Match(doc) {
				return false
			}
		}
		return true
	case clauseNor:
		for _, sub := range c.subs {
			if sub.Match(doc) {
				return false
			}
		}
		return true
	case clauseNot:
		return !c.sub.Match(doc)
	default:
		return false
	}
}

// matchOp evaluates one operator against a resolved field value. val may
// be an []any produced by array fan-out (getPath); for every operator
// except $size and $elemMatch (which look at the array as a whole),
// matching succeeds if ANY array element satisfies the operator (the
// "array-element fallback" of §4.1). $exists is handled
// by the caller directly against the document, since its "field present"
// question is independent of the fanned-out value shape.
func matchOp(op fieldOp, val any) bool {
	if arr, ok := val.([]any); ok && op.kind != opSize && op.kind != opElemMatch {
		// $ne/$nin are negations of $eq/$in, not independent "any
		// element fails" checks: a document whose array contains the
		// excluded value must NOT match, even if other elements differ.
		switch op.kind {
		case opNe:
			return !anyElementMatches(fieldOp{kind: opEq, arg: op.arg}, arr)
		case opNin:
			return !anyElementMatches(fieldOp{kind: opIn, arg: op.arg}, arr)
		default:
			return anyElementMatches(op, arr)
		}
	}

	return matchScalarOp(op, val)
}

func anyElementMatches(op fieldOp, arr []any) bool {
	for _, el := range arr {
		if matchScalarOp(op, el) {
			return true
		}
	}
	return false
}

func matchScalarOp(op fieldOp, val any) bool {
	switch op.kind {
	case opEq:
		return equal(val, op.arg)
	case opNe:
		return !equal(val, op.arg)
	case opLt:
		return isComparable(val, op.arg) && compare(val, op.arg) < 0
	case opLte:
		return isComparable(val, op.arg) && compare(val, op.arg) <= 0
	case opGt:
		return isComparable(val, op.arg) && compare(val, op.arg) > 0
	case opGte:
		return isComparable(val, op.arg) && compare(val, op.arg) >= 0
	case opIn:
		for _, want := range op.arg.([]any) {
			if equal(val, want) {
				return true
			}
		}
		return false
	case opNin:
		for _, want := range op.arg.([]any) {
			if equal(val, want) {
				return false
			}
		}
		return true
	case opRegex:
		s, ok := val.(string)
		if !ok {
			return false
		}
		return op.re.MatchString(s)
	case opSize:
		arr, ok := val.([]any)
		if !ok {
			return false
		}
		return float64(len(arr)) == toFloat(op.arg)
	case opElemMatch:
		arr, ok := val.([]any)
		if !ok {
			return false
		}
		for _, el := range arr {
			m, ok := el.(map[string]any)
			if !ok {
				continue
			}
			if op.sub.Match(m) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// isComparable guards range operators from comparing across unrelated
// types in a way that would otherwise fall back to the total-order's
// type-rank comparison and silently "match" nonsensical pairs (e.g. a
// string field against a numeric $gt bound never matches in MongoDB).
func isComparable(a, b any) bool {
	return typeRank(a) == typeRank(b)
}
