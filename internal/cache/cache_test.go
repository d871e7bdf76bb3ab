package cache

import "testing"

func TestStoreBasics(t *testing.T) {
	s := NewStore[int]()
	if _, ok := s.Get("a"); ok {
		t.Fatal("empty store should miss")
	}
	s.Set("a", 1)
	s.Set("b", 2)
	if v, ok := s.Get("a"); !ok || v != 1 {
		t.Fatalf("got (%d, %v)", v, ok)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}
	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Fatal("deleted key should miss")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore[string]()
	s.Set("k", "v")
	snap := s.Snapshot()
	snap["k"] = "mutated"
	if v, _ := s.Get("k"); v != "v" {
		t.Fatalf("snapshot mutation leaked into store: %q", v)
	}
}

func TestReplace(t *testing.T) {
	s := NewStore[int]()
	s.Set("stale", 1)
	s.Replace(map[string]int{"fresh": 2})
	if _, ok := s.Get("stale"); ok {
		t.Fatal("replace should drop old entries")
	}
	if v, ok := s.Get("fresh"); !ok || v != 2 {
		t.Fatalf("got (%d, %v)", v, ok)
	}
}
