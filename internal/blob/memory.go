package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory adalah Store in-process untuk test dan development lokal.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailPut dan FailDelete memaksa error, dipakai test jalur kompensasi.
	FailPut    bool
	FailDelete bool
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	if m.FailPut {
		return fmt.Errorf("memory store: put %s gagal (disengaja)", key)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory store: objek %s tidak ditemukan", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if m.FailDelete {
		return fmt.Errorf("memory store: delete %s gagal (disengaja)", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Has reports whether an object exists, for test assertions.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
