// Query parsing.
//
// A query map is parsed once into a small tagged tree (DESIGN NOTES §9)
// instead of being re-interpreted on every candidate document. Plan.Match
// walks that tree against a single document.
package holodoc

import "regexp"

// Plan is a parsed query, ready to be matched against documents
// repeatedly without re-walking the original map.
type Plan struct {
	clauses []clause
}

type clauseKind int

const (
	clauseField clauseKind = iota
	clauseOr
	clauseAnd
	clauseNor
	clauseNot
)

type clause struct {
	kind clauseKind

	// clauseField
	field string
	ops   []fieldOp

	// clauseOr/clauseAnd/clauseNor
	subs []*Plan

	// clauseNot
	sub *Plan
}

type opKind int

const (
	opEq opKind = iota
	opNe
	opLt
	opLte
	opGt
	opGte
	opIn
	opNin
	opExists
	opRegex
	opSize
	opElemMatch
)

type fieldOp struct {
	kind opKind
	arg  any
	re   *regexp.Regexp
	sub  *Plan
}

// ParseQuery parses a query map into a Plan. See §4.1 for clause forms.
func ParseQuery(query map[string]any) (*Plan, error) {
	p := &Plan{}
	for key, val := range query {
		c, err := parseTopLevel(key, val)
		if err != nil {
			return nil, err
		}
		p.clauses = append(p.clauses, c)
	}
	return p, nil
}

func parseTopLevel(key string, val any) (clause, error) {
	switch key {
	case "$or":
		return parseLogicalArray(clauseOr, val)
	case "$and":
		return parseLogicalArray(clauseAnd, val)
	case "$nor":
		return parseLogicalArray(clauseNor, val)
	case "$not":
		m, ok := val.(map[string]any)
		if !ok {
			return clause{}, newErr(QueryMalformed, "$not requires an object")
		}
		sub, err := ParseQuery(m)
		if err != nil {
			return clause{}, err
		}
		return clause{kind: clauseNot, sub: sub}, nil
	default:
		if len(key) > 0 && key[0] == '$' {
			return clause{}, newErr(QueryMalformed, "unknown top-level operator \""+key+"\"")
		}
		ops, err := parseFieldValue(val)
		if err != nil {
			return clause{}, err
		}
		return clause{kind: clauseField, field: key, ops: ops}, nil
	}
}

func parseLogicalArray(kind clauseKind, val any) (clause, error) {
	arr, ok := val.([]any)
	if !ok {
		return clause{}, newErr(QueryMalformed, "logical operator requires an array of sub-queries")
	}
	subs := make([]*Plan, 0, len(arr))
	for _, sq := range arr {
		m, ok := sq.(map[string]any)
		if !ok {
			return clause{}, newErr(QueryMalformed, "logical operator sub-query must be an object")
		}
		p, err := ParseQuery(m)
		if err != nil {
			return clause{}, err
		}
		subs = append(subs, p)
	}
	return clause{kind: kind, subs: subs}, nil
}

func parseFieldValue(val any) ([]fieldOp, error) {
	m, ok := val.(map[string]any)
	if !ok || !hasDollarKey(m) {
		return []fieldOp{{kind: opEq, arg: val}}, nil
	}
	if !allDollarKeys(m) {
		return nil, newErr(QueryMalformed, "cannot mix operator and literal keys")
	}
	ops := make([]fieldOp, 0, len(m))
	for opName, arg := range m {
		op, err := parseOp(opName, arg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseOp(name string, arg any) (fieldOp, error) {
	switch name {
	case "$eq":
		return fieldOp{kind: opEq, arg: arg}, nil
	case "$ne":
		return fieldOp{kind: opNe, arg: arg}, nil
	case "$lt":
		return fieldOp{kind: opLt, arg: arg}, nil
	case "$lte":
		return fieldOp{kind: opLte, arg: arg}, nil
	case "$gt":
		return fieldOp{kind: opGt, arg: arg}, nil
	case "$gte":
		return fieldOp{kind: opGte, arg: arg}, nil
	case "$in":
		a, ok := arg.([]any)
		if !ok {
			return fieldOp{}, newErr(QueryMalformed, "$in requires an array")
		}
		return fieldOp{kind: opIn, arg: a}, nil
	case "$nin":
		a, ok := arg.([]any)
		if !ok {
			return fieldOp{}, newErr(QueryMalformed, "$nin requires an array")
		}
		return fieldOp{kind: opNin, arg: a}, nil
	case "$exists":
		b, ok := arg.(bool)
		if !ok {
			return fieldOp{}, newErr(QueryMalformed, "$exists requires a boolean")
		}
		return fieldOp{kind: opExists, arg: b}, nil
	case "$regex":
		s, ok := arg.(string)
		if !ok {
			return fieldOp{}, newErr(QueryMalformed, "$regex requires a string")
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return fieldOp{}, newErr(QueryMalformed, "invalid $regex pattern: "+err.Error())
		}
		return fieldOp{kind: opRegex, re: re, arg: s}, nil
	case "$size":
		return fieldOp{kind: opSize, arg: arg}, nil
	case "$elemMatch":
		m, ok := arg.(map[string]any)
		if !ok {
			return fieldOp{}, newErr(QueryMalformed, "$elemMatch requires an object")
		}
		sub, err := ParseQuery(m)
		if err != nil {
			return fieldOp{}, err
		}
		return fieldOp{kind: opElemMatch, sub: sub}, nil
	default:
		return fieldOp{}, newErr(QueryMalformed, "unknown operator \""+name+"\"")
	}
}

func hasDollarKey(m map[string]any) bool {
	for k := range m {
		if len(k) > 0 && k[0] == '$' {
			return true
		}
	}
	return false
}

func allDollarKeys(m map[string]any) bool {
	for k := range m {
		if len(k) == 0 || k[0] != '$' {
			return false
		}
	}
	return true
}
