package storage

import (
	"bytes"
	"context"
	"io"
	"path"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps assets in memory. SaveErr and DeleteErr force failures.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	SaveErr   error
	DeleteErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Save(ctx context.Context, dir, ext string, r io.Reader) (string, error) {
	if m.SaveErr != nil {
		return "", &AssetError{Op: "save", Err: m.SaveErr}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", &AssetError{Op: "save", Err: err}
	}

	ref := path.Join("/mem", cleanDir(dir), uuid.New().String()+normalizeExt(ext))
	m.mu.Lock()
	m.objects[ref] = buf.Bytes()
	m.mu.Unlock()
	return ref, nil
}

func (m *MemoryStore) Delete(ctx context.Context, ref string) error {
	if m.DeleteErr != nil {
		return &AssetError{Op: "delete", Ref: ref, Err: m.DeleteErr}
	}
	m.mu.Lock()
	delete(m.objects, ref)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[ref]
	return ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
