package vector

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of an EncryptedIndex key in bytes.
const KeySize = chacha20poly1305.KeySize

// ErrDecrypt is returned when stored vectors cannot be opened with the index key.
var ErrDecrypt = errors.New("vector decryption failed")

// EncryptedIndex keeps every vector sealed with XChaCha20-Poly1305 and only
// opens them while scoring a query. It backs the "cyborg" primary, whose
// latency includes the cost of decryption.
type EncryptedIndex struct {
	dimensions int
	aead       cipher.AEAD
	ids        []string
	pos        map[string]int
	sealed     [][]byte
	mu         sync.RWMutex
}

// encryptedFile is the on-disk form; vectors stay sealed.
type encryptedFile struct {
	Dimensions int
	IDs        []string
	Sealed     [][]byte
}

// GenerateKey returns a random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// ParseKey decodes a hex-encoded key.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// NewEncryptedIndex creates an encrypted index with the given dimension and key.
func NewEncryptedIndex(dimensions int, key []byte) (*EncryptedIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return &EncryptedIndex{dimensions: dimensions, aead: aead, pos: make(map[string]int)}, nil
}

// Type returns the index type identifier.
func (e *EncryptedIndex) Type() string {
	return string(TypeEncrypted)
}

func (e *EncryptedIndex) seal(id string, vec []float32) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(vec)*4+e.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, encodeFloats(vec), []byte(id)), nil
}

func (e *EncryptedIndex) open(id string, blob []byte) ([]float32, error) {
	ns := e.aead.NonceSize()
	if len(blob) < ns {
		return nil, fmt.Errorf("%w: %s: short ciphertext", ErrDecrypt, id)
	}
	plain, err := e.aead.Open(nil, blob[:ns], blob[ns:], []byte(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecrypt, id)
	}
	return decodeFloats(plain), nil
}

// Add seals and stores vectors; an existing ID is replaced.
func (e *EncryptedIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	blobs := make([][]byte, len(ids))
	for i, v := range vectors {
		if err := checkDim(len(v), e.dimensions); err != nil {
			return err
		}
		blob, err := e.seal(ids[i], v)
		if err != nil {
			return err
		}
		blobs[i] = blob
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, id := range ids {
		if p, ok := e.pos[id]; ok {
			e.sealed[p] = blobs[i]
			continue
		}
		e.pos[id] = len(e.ids)
		e.ids = append(e.ids, id)
		e.sealed = append(e.sealed, blobs[i])
	}
	return nil
}

// Search opens each vector and returns the top-k by inner product.
func (e *EncryptedIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if err := checkDim(len(query), e.dimensions); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if k <= 0 || len(e.ids) == 0 {
		return nil, nil
	}
	best := newTopK(k)
	for i, id := range e.ids {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		vec, err := e.open(id, e.sealed[i])
		if err != nil {
			return nil, err
		}
		best.offer(id, InnerProduct(query, vec))
	}
	return best.sorted(), nil
}

// Remove deletes vectors by ID.
func (e *EncryptedIndex) Remove(ctx context.Context, ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		p, ok := e.pos[id]
		if !ok {
			continue
		}
		last := len(e.ids) - 1
		e.ids[p], e.sealed[p] = e.ids[last], e.sealed[last]
		e.pos[e.ids[p]] = p
		e.ids, e.sealed = e.ids[:last], e.sealed[:last]
		delete(e.pos, id)
	}
	return nil
}

// Save writes the sealed vectors to path with gob; plaintext never touches disk.
func (e *EncryptedIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(encryptedFile{Dimensions: e.dimensions, IDs: e.ids, Sealed: e.sealed}); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load replaces the contents with the file at path. The first vector is
// opened to verify the key. A missing file is not an error.
func (e *EncryptedIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var file encryptedFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	if err := checkDim(file.Dimensions, e.dimensions); err != nil {
		return err
	}
	if len(file.IDs) != len(file.Sealed) {
		return fmt.Errorf("corrupt index: %d ids, %d vectors", len(file.IDs), len(file.Sealed))
	}
	if len(file.IDs) > 0 {
		if _, err := e.open(file.IDs[0], file.Sealed[0]); err != nil {
			return err
		}
	}
	pos := make(map[string]int, len(file.IDs))
	for i, id := range file.IDs {
		pos[id] = i
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids, e.sealed, e.pos = file.IDs, file.Sealed, pos
	return nil
}

// Size returns the number of vectors in the index.
func (e *EncryptedIndex) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.ids)
}

// Close is a no-op for EncryptedIndex.
func (e *EncryptedIndex) Close() error {
	return nil
}
