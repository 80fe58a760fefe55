package holodoc

import "testing"

func TestIndexUniqueViolation(t *testing.T) {
	ix := newIndex(IndexOptions{FieldName: "email", Unique: true})
	if err := ix.insert(1, Doc{"email": "a@b.com"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := ix.insert(2, Doc{"email": "a@b.com"})
	if err == nil {
		t.Fatalf("expected unique violation on duplicate email")
	}
	var dbErr *Error
	if e, ok := err.(*Error); ok {
		dbErr = e
	}
	if dbErr == nil || dbErr.Kind != UniqueViolated {
		t.Fatalf("expected UniqueViolated, got %v", err)
	}
	if ix.tree.count("a@b.com") != 1 {
		t.Fatalf("failed insert should not have touched the index")
	}
}

func TestIndexSparseSkipsMissingField(t *testing.T) {
	ix := newIndex(IndexOptions{FieldName: "email", Sparse: true})
	if err := ix.insert(1, Doc{"name": "no email"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := len(ix.getAll()); got != 0 {
		t.Fatalf("sparse index should not index missing-field documents, got %d entries", got)
	}
}

func TestIndexNonSparseIndexesMissingAsUndefined(t *testing.T) {
	ix := newIndex(IndexOptions{FieldName: "email"})
	if err := ix.insert(1, Doc{"name": "no email"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := len(ix.getAll()); got != 1 {
		t.Fatalf("non-sparse index should index missing field under undefined, got %d entries", got)
	}
}

func TestIndexArrayFieldIndexesEachElement(t *testing.T) {
	ix := newIndex(IndexOptions{FieldName: "tags"})
	if err := ix.insert(1, Doc{"tags": []any{"a", "b"}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := ix.getMatching("a"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected doc 1 under key \"a\", got %v", got)
	}
	if got := ix.getMatching("b"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected doc 1 under key \"b\", got %v", got)
	}
}

func TestIndexUpdateRevertsOnFailure(t *testing.T) {
	ix := newIndex(IndexOptions{FieldName: "email", Unique: true})
	if err := ix.insert(1, Doc{"email": "a@b.com"}); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if err := ix.insert(2, Doc{"email": "c@d.com"}); err != nil {
		t.Fatalf("insert 2: %v", err)
	}

	err := ix.update(2, Doc{"email": "c@d.com"}, Doc{"email": "a@b.com"})
	if err == nil {
		t.Fatalf("expected unique violation updating doc 2 to doc 1's email")
	}
	if got := ix.getMatching("c@d.com"); len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected doc 2 reverted back under its original key, got %v", got)
	}
	if got := ix.getMatching("a@b.com"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected doc 1 to still own a@b.com, got %v", got)
	}
}

func TestIndexRemove(t *testing.T) {
	ix := newIndex(IndexOptions{FieldName: "email"})
	doc := Doc{"email": "a@b.com"}
	if err := ix.insert(1, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	ix.remove(1, doc)
	if got := len(ix.getAll()); got != 0 {
		t.Fatalf("expected index empty after remove, got %d entries", got)
	}
}
