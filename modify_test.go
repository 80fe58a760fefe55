package holodoc

import "testing"

func TestApplyUpdateReplaceForm(t *testing.T) {
	candidate := Doc{"_id": "1", "a": 1.0}
	out, err := applyUpdate(candidate, Doc{"b": 2.0}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	if out["_id"] != "1" {
		t.Errorf("replacement form should preserve _id, got %v", out["_id"])
	}
	if _, has := out["a"]; has {
		t.Errorf("replacement form should drop fields absent from the replacement doc")
	}
	if out["b"] != 2.0 {
		t.Errorf("expected b=2.0, got %v", out["b"])
	}
}

func TestApplyUpdateRejectsMixedForm(t *testing.T) {
	candidate := Doc{"_id": "1"}
	_, err := applyUpdate(candidate, Doc{"$set": Doc{"a": 1.0}, "b": 2.0}, false)
	if err == nil {
		t.Fatalf("expected error mixing operator and non-operator keys")
	}
}

func TestModSet(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "a": 1.0}, Doc{"$set": Doc{"a": 2.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	if out["a"] != 2.0 {
		t.Errorf("expected a=2.0, got %v", out["a"])
	}
}

func TestModInc(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "count": 5.0}, Doc{"$inc": Doc{"count": 3.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	if out["count"] != 8.0 {
		t.Errorf("expected count=8.0, got %v", out["count"])
	}
}

func TestModIncOnMissingFieldStartsFromZero(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1"}, Doc{"$inc": Doc{"count": 3.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	if out["count"] != 3.0 {
		t.Errorf("expected count=3.0, got %v", out["count"])
	}
}

func TestModPush(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "tags": []any{"a"}}, Doc{"$push": Doc{"tags": "b"}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	arr := out["tags"].([]any)
	if len(arr) != 2 || arr[0] != "a" || arr[1] != "b" {
		t.Errorf("expected tags=[a b], got %v", arr)
	}
}

func TestModPushEachWithSlice(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "tags": []any{"a"}}, Doc{"$push": Doc{
		"tags": Doc{"$each": []any{"b", "c"}, "$slice": -2.0},
	}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	arr := out["tags"].([]any)
	if len(arr) != 2 || arr[0] != "b" || arr[1] != "c" {
		t.Errorf("expected tags=[b c] after $slice:-2, got %v", arr)
	}
}

func TestModAddToSetDeduplicates(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "tags": []any{"a"}}, Doc{"$addToSet": Doc{"tags": "a"}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	arr := out["tags"].([]any)
	if len(arr) != 1 {
		t.Errorf("expected $addToSet to skip existing value, got %v", arr)
	}
}

func TestModPop(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "tags": []any{"a", "b", "c"}}, Doc{"$pop": Doc{"tags": 1.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	arr := out["tags"].([]any)
	if len(arr) != 2 || arr[1] != "b" {
		t.Errorf("$pop:1 should remove last element, got %v", arr)
	}

	out2, err := applyUpdate(Doc{"_id": "1", "tags": []any{"a", "b", "c"}}, Doc{"$pop": Doc{"tags": -1.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	arr2 := out2["tags"].([]any)
	if len(arr2) != 2 || arr2[0] != "b" {
		t.Errorf("$pop:-1 should remove first element, got %v", arr2)
	}
}

func TestModPullEquality(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "tags": []any{"a", "b", "a"}}, Doc{"$pull": Doc{"tags": "a"}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	arr := out["tags"].([]any)
	if len(arr) != 1 || arr[0] != "b" {
		t.Errorf("expected [b] after pulling \"a\", got %v", arr)
	}
}

func TestModPullObjectFieldMatch(t *testing.T) {
	candidate := Doc{"_id": "1", "items": []any{
		Doc{"sku": "x", "qty": 1.0},
		Doc{"sku": "y", "qty": 2.0},
	}}
	out, err := applyUpdate(candidate, Doc{"$pull": Doc{"items": Doc{"sku": "x"}}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	arr := out["items"].([]any)
	if len(arr) != 1 || arr[0].(Doc)["sku"] != "y" {
		t.Errorf("expected only sku=y to survive, got %v", arr)
	}
}

func TestModMinMax(t *testing.T) {
	out, err := applyUpdate(Doc{"_id": "1", "score": 5.0}, Doc{"$min": Doc{"score": 3.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	if out["score"] != 3.0 {
		t.Errorf("$min should lower score to 3.0, got %v", out["score"])
	}

	out2, err := applyUpdate(Doc{"_id": "1", "score": 5.0}, Doc{"$min": Doc{"score": 7.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	if out2["score"] != 5.0 {
		t.Errorf("$min should not raise score, got %v", out2["score"])
	}

	out3, err := applyUpdate(Doc{"_id": "1", "score": 5.0}, Doc{"$max": Doc{"score": 7.0}}, false)
	if err != nil {
		t.Fatalf("applyUpdate: %v", err)
	}
	if out3["score"] != 7.0 {
		t.Errorf("$max should raise score to 7.0, got %v", out3["score"])
	}
}

func TestCheckObjectRejectsInvalidKeys(t *testing.T) {
	if err := checkObject(Doc{"$bad": 1.0}); err == nil {
		t.Errorf("expected error for key starting with '$'")
	}
	if err := checkObject(Doc{"a.b": 1.0}); err == nil {
		t.Errorf("expected error for key containing '.'")
	}
	if err := checkObject(Doc{"ok": Doc{"nested.bad": 1.0}}); err == nil {
		t.Errorf("expected nested key validation")
	}
}
