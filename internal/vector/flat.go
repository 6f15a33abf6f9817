package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// FlatIndex is an exhaustive inner-product index over vectors kept in one
// contiguous slice, the layout of a FAISS IndexFlatIP. It backs the "faiss"
// comparator.
type FlatIndex struct {
	dimensions int
	ids        []string
	pos        map[string]int
	data       []float32
	mu         sync.RWMutex
}

// NewFlatIndex creates a flat index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions, pos: make(map[string]int)}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(TypeFlat)
}

// Add inserts vectors; an existing ID is overwritten in place.
func (f *FlatIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for _, v := range vectors {
		if err := checkDim(len(v), f.dimensions); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range ids {
		if p, ok := f.pos[id]; ok {
			copy(f.data[p*f.dimensions:(p+1)*f.dimensions], vectors[i])
			continue
		}
		f.pos[id] = len(f.ids)
		f.ids = append(f.ids, id)
		f.data = append(f.data, vectors[i]...)
	}
	return nil
}

// Search returns the top-k vectors by inner product.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if err := checkDim(len(query), f.dimensions); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.ids) == 0 {
		return nil, nil
	}
	best := newTopK(k)
	d := f.dimensions
	for i, id := range f.ids {
		best.offer(id, InnerProduct(query, f.data[i*d:(i+1)*d]))
	}
	return best.sorted(), nil
}

// Remove deletes vectors by ID, compacting storage.
func (f *FlatIndex) Remove(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.dimensions
	for _, id := range ids {
		p, ok := f.pos[id]
		if !ok {
			continue
		}
		last := len(f.ids) - 1
		if p != last {
			f.ids[p] = f.ids[last]
			copy(f.data[p*d:(p+1)*d], f.data[last*d:(last+1)*d])
			f.pos[f.ids[p]] = p
		}
		f.ids = f.ids[:last]
		f.data = f.data[:last*d]
		delete(f.pos, id)
	}
	return nil
}

// Save persists the index to path. Directory is created if needed. Format: dimension (4), n (4),
// then per vector: idLen (4), id bytes, vector (dimension*4 bytes).
func (f *FlatIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(f.dimensions), uint32(len(f.ids))}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	d := f.dimensions
	for i, id := range f.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := w.WriteString(id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := w.Write(encodeFloats(f.data[i*d : (i+1)*d])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return w.Flush()
}

// Load replaces the index contents with the file at path. A missing file is
// not an error and leaves the index unchanged.
func (f *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()
	r := bufio.NewReader(file)
	var header [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := checkDim(int(header[0]), f.dimensions); err != nil {
		return err
	}
	n := int(header[1])
	ids := make([]string, 0, n)
	pos := make(map[string]int, n)
	data := make([]float32, 0, n*f.dimensions)
	buf := make([]byte, f.dimensions*4)
	for i := 0; i < n; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("read id len: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		pos[string(idBytes)] = len(ids)
		ids = append(ids, string(idBytes))
		data = append(data, decodeFloats(buf)...)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids, f.pos, f.data = ids, pos, data
	return nil
}

// Size returns the number of vectors in the index.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}

func encodeFloats(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
