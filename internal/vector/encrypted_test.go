package vector

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestEncrypted(t *testing.T, dim int) (*EncryptedIndex, []byte) {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	idx, err := NewEncryptedIndex(dim, key)
	if err != nil {
		t.Fatal(err)
	}
	return idx, key
}

func TestEncryptedIndex_AddSearch(t *testing.T) {
	idx, _ := newTestEncrypted(t, 3)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	res, err := idx.Search(ctx, []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].ID != "c" {
		t.Errorf("got %+v", res)
	}
	if err := idx.Remove(ctx, []string{"c"}); err != nil {
		t.Fatal(err)
	}
	res, _ = idx.Search(ctx, []float32{0, 1, 0}, 1)
	if res[0].ID != "b" {
		t.Errorf("after remove top = %s", res[0].ID)
	}
}

func TestEncryptedIndex_SaveKeepsVectorsSealed(t *testing.T) {
	idx, key := newTestEncrypted(t, 2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"rec-1"}, [][]float32{{0.6, 0.8}})
	path := filepath.Join(t.TempDir(), "cyborg.idx")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, encodeFloats([]float32{0.6, 0.8})) {
		t.Error("plaintext vector found in saved index")
	}

	reopened, _ := NewEncryptedIndex(2, key)
	if err := reopened.Load(path); err != nil {
		t.Fatal(err)
	}
	res, err := reopened.Search(ctx, []float32{0.6, 0.8}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res[0].ID != "rec-1" {
		t.Errorf("top = %s", res[0].ID)
	}
}

func TestEncryptedIndex_LoadWrongKey(t *testing.T) {
	idx, _ := newTestEncrypted(t, 2)
	_ = idx.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}})
	path := filepath.Join(t.TempDir(), "cyborg.idx")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	other, _ := newTestEncrypted(t, 2)
	if err := other.Load(path); !errors.Is(err, ErrDecrypt) {
		t.Errorf("expected ErrDecrypt, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	if _, err := ParseKey(strings.Repeat("ab", KeySize)); err != nil {
		t.Errorf("valid key: %v", err)
	}
	if _, err := ParseKey("abcd"); err == nil {
		t.Error("short key should fail")
	}
	if _, err := ParseKey("zz"); err == nil {
		t.Error("non-hex key should fail")
	}
}

func TestNewEncryptedIndex_badKey(t *testing.T) {
	if _, err := NewEncryptedIndex(2, []byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}
