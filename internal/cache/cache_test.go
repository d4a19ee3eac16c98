package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKey_NormalizesWhitespaceAndCase(t *testing.T) {
	a := Key("  What\tIS   going on? ")
	b := Key("what is going on?")
	if a != b {
		t.Fatalf("expected identical keys, got %s vs %s", a, b)
	}
	if a == Key("something else") {
		t.Fatal("distinct text must not collide")
	}
}

func TestStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Put(Key("segment one"), 4)
	s.Put(Key("segment two"), 2)
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, ok := reloaded.Get(Key("segment one")); !ok || got != 4 {
		t.Fatalf("expected 4, got %d (ok=%v)", got, ok)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", reloaded.Len())
	}
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nope", "scores.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStore_FlushSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("clean flush should not create a file, stat err=%v", err)
	}
}
