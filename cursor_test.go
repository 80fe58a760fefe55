package holodoc

import "testing"

func staticCursor(docs []Doc) *Cursor {
	return newCursor(func() []Doc { return docs })
}

func TestCursorSort(t *testing.T) {
	docs := []Doc{{"_id": "1", "n": 3.0}, {"_id": "2", "n": 1.0}, {"_id": "3", "n": 2.0}}
	out, err := staticCursor(docs).Sort(SortSpec{Field: "n", Ascending: true}).Exec()
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	want := []float64{1, 2, 3}
	for i, d := range out {
		if d["n"] != want[i] {
			t.Fatalf("out[%d][n] = %v, want %v", i, d["n"], want[i])
		}
	}
}

func TestCursorSkipLimit(t *testing.T) {
	docs := []Doc{{"_id": "1"}, {"_id": "2"}, {"_id": "3"}, {"_id": "4"}}
	out, err := staticCursor(docs).Skip(1).Limit(2).Exec()
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(out) != 2 || out[0]["_id"] != "2" || out[1]["_id"] != "3" {
		t.Fatalf("unexpected skip/limit result: %v", out)
	}
}

func TestCursorProjectionPick(t *testing.T) {
	docs := []Doc{{"_id": "1", "a": 1.0, "b": 2.0}}
	out, err := staticCursor(docs).Projection(map[string]int{"a": 1}).Exec()
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	d := out[0]
	if d["a"] != 1.0 {
		t.Errorf("expected a=1.0 to survive pick projection")
	}
	if _, has := d["b"]; has {
		t.Errorf("expected b to be excluded by pick projection")
	}
	if _, has := d["_id"]; !has {
		t.Errorf("expected _id to survive a pick projection by default")
	}
}

func TestCursorProjectionOmit(t *testing.T) {
	docs := []Doc{{"_id": "1", "a": 1.0, "b": 2.0}}
	out, err := staticCursor(docs).Projection(map[string]int{"b": 0}).Exec()
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	d := out[0]
	if d["a"] != 1.0 {
		t.Errorf("expected a to survive omit projection")
	}
	if _, has := d["b"]; has {
		t.Errorf("expected b to be excluded by omit projection")
	}
}

func TestCursorProjectionRejectsMixedForm(t *testing.T) {
	docs := []Doc{{"_id": "1", "a": 1.0, "b": 2.0}}
	_, err := staticCursor(docs).Projection(map[string]int{"a": 1, "b": 0}).Exec()
	if err == nil {
		t.Fatalf("expected error mixing inclusion and exclusion outside _id")
	}
}

func TestCursorExecDeepCopies(t *testing.T) {
	original := Doc{"_id": "1", "nested": Doc{"x": 1.0}}
	docs := []Doc{original}
	out, err := staticCursor(docs).Exec()
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	out[0]["nested"].(Doc)["x"] = 99.0
	if original["nested"].(Doc)["x"] != 1.0 {
		t.Fatalf("mutating cursor result should not affect the source document")
	}
}
