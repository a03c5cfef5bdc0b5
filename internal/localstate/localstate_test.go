package localstate

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state", "state.json"))
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)

	beats := map[string]int64{"ana": 1710493500000}
	if err := s.Set(KeyHeartbeats, beats); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got map[string]int64
	if !s.Get(KeyHeartbeats, &got) {
		t.Fatal("Get() = false, want true")
	}
	if !reflect.DeepEqual(got, beats) {
		t.Errorf("Get() = %v, want %v", got, beats)
	}

	var missing []string
	if s.Get("nope", &missing) {
		t.Error("Get(missing) = true")
	}
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	var beats map[string]int64
	if s.Get(KeyHeartbeats, &beats) {
		t.Error("Get() on corrupt file = true, want false")
	}
	if keys := s.Keys(); len(keys) != 0 {
		t.Errorf("Keys() on corrupt file = %v, want empty", keys)
	}

	// A write after corruption starts from an empty state.
	if err := s.Set(KeyReviewedReports, []string{"2024-03-15-b1"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !s.SetContains(KeyReviewedReports, "2024-03-15-b1") {
		t.Error("value lost after recovering from corrupt file")
	}
}

func TestMalformedValue(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(KeyHeartbeats, "not a map"); err != nil {
		t.Fatal(err)
	}
	var beats map[string]int64
	if s.Get(KeyHeartbeats, &beats) {
		t.Error("Get() with wrong type = true, want false")
	}
}

func TestAddToSet(t *testing.T) {
	s := newTestStore(t)

	added, err := s.AddToSet(KeyNotifiedLate, "a", "b", "a")
	if err != nil {
		t.Fatalf("AddToSet() error = %v", err)
	}
	if !reflect.DeepEqual(added, []string{"a", "b"}) {
		t.Errorf("AddToSet() added = %v, want [a b]", added)
	}

	added, err = s.AddToSet(KeyNotifiedLate, "b", "c")
	if err != nil {
		t.Fatalf("AddToSet() error = %v", err)
	}
	if !reflect.DeepEqual(added, []string{"c"}) {
		t.Errorf("AddToSet() added = %v, want [c]", added)
	}
	for _, m := range []string{"a", "b", "c"} {
		if !s.SetContains(KeyNotifiedLate, m) {
			t.Errorf("SetContains(%q) = false", m)
		}
	}
}

func TestAddToSetRetaining(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddToSet(KeyNotifiedLate, "old-1", "old-2", "keep"); err != nil {
		t.Fatal(err)
	}

	keep := func(m string) bool { return m == "keep" || m == "new" }
	added, err := s.AddToSetRetaining(KeyNotifiedLate, keep, "new", "keep")
	if err != nil {
		t.Fatalf("AddToSetRetaining() error = %v", err)
	}
	if !reflect.DeepEqual(added, []string{"new"}) {
		t.Errorf("AddToSetRetaining() added = %v, want [new]", added)
	}

	var set []string
	s.Get(KeyNotifiedLate, &set)
	if !reflect.DeepEqual(set, []string{"keep", "new"}) {
		t.Errorf("set = %v, want [keep new]", set)
	}
}

func TestUpdateAbort(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("count", 1); err != nil {
		t.Fatal(err)
	}

	var n int
	boom := errors.New("boom")
	err := s.Update("count", &n, func(found bool) error {
		if !found {
			t.Error("Update() found = false")
		}
		n = 99
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	var got int
	s.Get("count", &got)
	if got != 1 {
		t.Errorf("value = %d after aborted update, want 1", got)
	}
}

func TestDeleteAndDraftKey(t *testing.T) {
	s := newTestStore(t)
	key := DraftKey("ana")
	if key != "draft:ana" {
		t.Errorf("DraftKey() = %q", key)
	}
	if err := s.Set(key, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete() of missing key error = %v", err)
	}
	var v []string
	if s.Get(key, &v) {
		t.Error("key still present after Delete()")
	}
}
