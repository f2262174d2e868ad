package record

import "testing"

func TestRBuildsRecordFromPairs(t *testing.T) {
	r := R("id", 1, "name", "alpha")
	if r["id"] != 1 || r["name"] != "alpha" {
		t.Fatalf("unexpected record contents: %v", r)
	}
}

func TestROddArgsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an odd number of arguments")
		}
	}()
	R("id", 1, "name")
}

func TestGetDirectMatch(t *testing.T) {
	r := R("count", int64(5))
	v, ok := Get[int64](r, "count")
	if !ok || v != 5 {
		t.Fatalf("expected (5, true), got (%v, %v)", v, ok)
	}
}

func TestGetConvertsCompatibleNumericKinds(t *testing.T) {
	r := R("count", 5) // stored as int
	v, ok := Get[int64](r, "count")
	if !ok || v != 5 {
		t.Fatalf("expected int -> int64 conversion to succeed, got (%v, %v)", v, ok)
	}
}

func TestGetMissingFieldFails(t *testing.T) {
	r := R("id", 1)
	_, ok := Get[string](r, "missing")
	if ok {
		t.Fatal("expected Get to fail for a missing field")
	}
}

func TestGetOrFallsBack(t *testing.T) {
	r := R("id", 1)
	v := GetOr(r, "missing", "default")
	if v != "default" {
		t.Fatalf("expected fallback value, got %q", v)
	}
}

func TestSetChains(t *testing.T) {
	r := R("id", 1).Set("name", "alpha")
	if r["name"] != "alpha" {
		t.Fatalf("expected Set to chain, got %v", r)
	}
}

func TestFromMapsAndToMaps(t *testing.T) {
	maps := []map[string]any{{"id": 1}, {"id": 2}}
	records := FromMaps(maps)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	back := ToMaps(records)
	if len(back) != 2 || back[0]["id"] != 1 {
		t.Fatalf("expected round-trip to preserve contents, got %v", back)
	}
}
