package holodoc

import (
	"testing"
	"time"
)

func TestEncodeDecodeDocRoundTrip(t *testing.T) {
	doc := Doc{"_id": "1", "name": "ann", "at": time.UnixMilli(1700000000123).UTC()}
	b, err := encodeDoc(doc)
	if err != nil {
		t.Fatalf("encodeDoc: %v", err)
	}
	out, err := decodeDoc(b)
	if err != nil {
		t.Fatalf("decodeDoc: %v", err)
	}
	if out["_id"] != "1" || out["name"] != "ann" {
		t.Fatalf("round-trip mismatch: %#v", out)
	}
	got, ok := out["at"].(time.Time)
	if !ok {
		t.Fatalf("expected \"at\" to decode back to time.Time, got %T", out["at"])
	}
	if !got.Equal(doc["at"].(time.Time)) {
		t.Fatalf("date round-trip mismatch: got %v want %v", got, doc["at"])
	}
}

func TestReplayLogBuildsLiveDocSet(t *testing.T) {
	doc1, _ := appendDocLine(Doc{"_id": "1", "a": 1.0}, Hooks{})
	doc2, _ := appendDocLine(Doc{"_id": "2", "a": 2.0}, Hooks{})
	tomb, _ := tombstoneLine("1", Hooks{})

	data := append(append(doc1, doc2...), tomb...)
	res, err := replayLog(data, Hooks{}, defaultCorruptAlertThreshold)
	if err != nil {
		t.Fatalf("replayLog: %v", err)
	}
	if len(res.docs) != 1 {
		t.Fatalf("expected 1 live doc after tombstone, got %d", len(res.docs))
	}
	if _, ok := res.docs["2"]; !ok {
		t.Fatalf("expected doc 2 to survive, got %#v", res.docs)
	}
}

func TestReplayLogTracksIndexLifecycle(t *testing.T) {
	created, _ := indexCreatedLine(IndexOptions{FieldName: "email", Unique: true}, Hooks{})
	data := created
	res, err := replayLog(data, Hooks{}, defaultCorruptAlertThreshold)
	if err != nil {
		t.Fatalf("replayLog: %v", err)
	}
	if len(res.indexes) != 1 || res.indexes[0].FieldName != "email" || !res.indexes[0].Unique {
		t.Fatalf("expected replay to recover the email unique index, got %#v", res.indexes)
	}

	removed, _ := indexRemovedLine("email", Hooks{})
	data2 := append(created, removed...)
	res2, err := replayLog(data2, Hooks{}, defaultCorruptAlertThreshold)
	if err != nil {
		t.Fatalf("replayLog: %v", err)
	}
	if len(res2.indexes) != 0 {
		t.Fatalf("expected the removed index to be absent, got %#v", res2.indexes)
	}
}

func TestReplayLogToleratesCorruptionBelowThreshold(t *testing.T) {
	good, _ := appendDocLine(Doc{"_id": "1"}, Hooks{})
	data := append(good, []byte("not json at all\n")...)
	res, err := replayLog(data, Hooks{}, 0.5)
	if err != nil {
		t.Fatalf("replayLog should tolerate 1 of 2 corrupt lines under 0.5 threshold: %v", err)
	}
	if res.corruptLines != 1 {
		t.Fatalf("expected 1 corrupt line counted, got %d", res.corruptLines)
	}
}

func TestReplayLogFailsAboveCorruptionThreshold(t *testing.T) {
	data := []byte("garbage1\ngarbage2\n")
	_, err := replayLog(data, Hooks{}, 0.1)
	if err == nil {
		t.Fatalf("expected CorruptionThresholdExceeded")
	}
	dbErr, ok := err.(*Error)
	if !ok || dbErr.Kind != CorruptionThresholdExceeded {
		t.Fatalf("expected CorruptionThresholdExceeded, got %v", err)
	}
}

func TestHooksRoundTripSelfCheck(t *testing.T) {
	xorByte := func(b []byte) []byte {
		out := make([]byte, len(b))
		for i, c := range b {
			out[i] = c ^ 0x5a
		}
		return out
	}
	h := Hooks{AfterSerialization: xorByte, BeforeDeserialization: xorByte}
	if err := h.validate(); err != nil {
		t.Fatalf("expected symmetric xor hooks to pass self-check: %v", err)
	}

	broken := Hooks{AfterSerialization: xorByte, BeforeDeserialization: func(b []byte) []byte { return b }}
	if err := broken.validate(); err == nil {
		t.Fatalf("expected mismatched hooks to fail self-check")
	}
}

func TestHooksRequireBothOrNeither(t *testing.T) {
	h := Hooks{AfterSerialization: func(b []byte) []byte { return b }}
	if err := h.validate(); err == nil {
		t.Fatalf("expected error when only one hook is set")
	}
}

func TestBuildCompactionPayloadRoundTripsLiveDocuments(t *testing.T) {
	docs := []Doc{{"_id": "1"}, {"_id": "2"}}
	payload, err := buildCompactionPayload(docs, nil, Hooks{})
	if err != nil {
		t.Fatalf("buildCompactionPayload: %v", err)
	}
	res, err := replayLog(payload, Hooks{}, defaultCorruptAlertThreshold)
	if err != nil {
		t.Fatalf("replayLog: %v", err)
	}
	if len(res.docs) != 2 {
		t.Fatalf("expected both documents to survive a round trip, got %d", len(res.docs))
	}
}
