// Secondary and primary (_id) indexes.
//
// An Index maps the value(s) at FieldName to the DocIDs of documents
// that hold them. DESIGN NOTES §9: documents are owned by the
// Collection's arena; every Index, including _id, stores DocID handles
// rather than document pointers, so Collection.update never has to hunt
// down every index holding a stale pointer to the old document.
package holodoc

// IndexOptions configures an Index, per §4.2.
type IndexOptions struct {
	FieldName          string
	Unique             bool
	Sparse             bool
	ExpireAfterSeconds *float64
}

// Index is an ordered container over one document field.
type Index struct {
	opts IndexOptions
	tree *treap
}

func newIndex(opts IndexOptions) *Index {
	return &Index{opts: opts, tree: newTreap()}
}

// FieldName is the dot-path this index is built on.
func (ix *Index) FieldName() string { return ix.opts.FieldName }

// Unique reports whether this index enforces uniqueness.
func (ix *Index) Unique() bool { return ix.opts.Unique }

// Sparse reports whether documents missing the field are excluded.
func (ix *Index) Sparse() bool { return ix.opts.Sparse }

// ExpireAfterSeconds returns the TTL, if this index has one.
func (ix *Index) ExpireAfterSeconds() (float64, bool) {
	if ix.opts.ExpireAfterSeconds == nil {
		return 0, false
	}
	return *ix.opts.ExpireAfterSeconds, true
}

// keysFor extracts the key(s) a document contributes to this index.
// The second return is false when the document should be excluded
// entirely (sparse index, field absent).
func (ix *Index) keysFor(doc Doc) ([]any, bool) {
	val, found := getPath(doc, ix.opts.FieldName)
	if !found {
		if ix.opts.Sparse {
			return nil, false
		}
		return []any{undefinedSentinel}, true
	}

	arr, isArr := val.([]any)
	if !isArr {
		return []any{val}, true
	}

	// One entry per element, duplicates within the same document
	// collapsed (§3).
	keys := make([]any, 0, len(arr))
	for _, el := range arr {
		dup := false
		for _, k := range keys {
			if equal(k, el) {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, el)
		}
	}
	return keys, true
}

// insert adds id under every key doc contributes. On a unique
// violation, no key is inserted (all keys are checked before any
// insertion), so a failed insert never partially touches the index.
func (ix *Index) insert(id DocID, doc Doc) error {
	keys, ok := ix.keysFor(doc)
	if !ok {
		return nil
	}
	if ix.opts.Unique {
		for _, k := range keys {
			if ix.tree.count(k) > 0 {
				return &Error{Kind: UniqueViolated, Field: ix.opts.FieldName, Key: k,
					Message: "duplicate key in unique index \"" + ix.opts.FieldName + "\""}
			}
		}
	}
	for _, k := range keys {
		ix.tree.insert(k, id)
	}
	return nil
}

// remove removes id from every key doc contributes.
func (ix *Index) remove(id DocID, doc Doc) {
	keys, ok := ix.keysFor(doc)
	if !ok {
		return
	}
	for _, k := range keys {
		ix.tree.remove(k, id)
	}
}

// update atomically swaps oldDoc's keys for newDoc's keys: it removes
// oldDoc first, then tries to insert newDoc; on failure it reverts by
// re-inserting oldDoc, per §4.2.
func (ix *Index) update(id DocID, oldDoc, newDoc Doc) error {
	ix.remove(id, oldDoc)
	if err := ix.insert(id, newDoc); err != nil {
		ix.remove(id, newDoc)
		ix.insert(id, oldDoc)
		return err
	}
	return nil
}

// getMatching returns the DocIDs stored under key. For an array key, the
// per-element results are unioned and deduplicated (§4.2).
func (ix *Index) getMatching(key any) []DocID {
	if arr, ok := key.([]any); ok {
		seen := map[DocID]bool{}
		var out []DocID
		for _, el := range arr {
			for _, id := range ix.tree.getMatching(el) {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}
		}
		return out
	}
	return ix.tree.getMatching(key)
}

// getBetweenBounds returns an ordered range scan over the index.
func (ix *Index) getBetweenBounds(b bounds) []DocID {
	return ix.tree.getBetweenBounds(b)
}

// getAll returns every DocID in key order.
func (ix *Index) getAll() []DocID {
	return ix.tree.getAll()
}

// reset discards all entries, used when reloading from disk.
func (ix *Index) reset() {
	ix.tree = newTreap()
}
