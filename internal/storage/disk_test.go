package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFootprint(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "faiss.idx")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "bleve")
	if err := os.MkdirAll(filepath.Join(sub, "store"), 0755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644)
	_ = os.WriteFile(filepath.Join(sub, "store", "b"), []byte("c"), 0644)

	got, err := Footprint(map[string]string{
		"faiss":  f1,
		"bleve":  sub,
		"cyborg": filepath.Join(dir, "missing.idx"),
		"none":   "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["faiss"] != 5 || got["bleve"] != 3 || got["cyborg"] != 0 {
		t.Errorf("got %v", got)
	}
	if _, ok := got["none"]; ok {
		t.Error("empty path should be skipped")
	}
}
