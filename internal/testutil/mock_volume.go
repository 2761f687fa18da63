// mock_volume.go - In-memory volume implementation for testing
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/csv-backend/backend/internal/models"
	"github.com/csv-backend/backend/internal/storage"
)

// MockVolume implements storage.Volume in memory
type MockVolume struct {
	mu       sync.RWMutex
	files    map[string][]byte
	modified map[string]time.Time
	writes   int

	// SaveErr, when set, is returned by every Save call
	SaveErr error
}

var _ storage.Volume = (*MockVolume)(nil)

// NewMockVolume creates an empty mock volume
func NewMockVolume() *MockVolume {
	return &MockVolume{
		files:    make(map[string][]byte),
		modified: make(map[string]time.Time),
	}
}

func (m *MockVolume) Save(ctx context.Context, name string, r io.Reader) (*models.StoredFile, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.files[name] = data
	m.modified[name] = now
	m.writes++

	return &models.StoredFile{Name: name, Size: int64(len(data)), ModifiedAt: now}, nil
}

func (m *MockVolume) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockVolume) List(ctx context.Context, limit int) ([]*models.StoredFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []*models.StoredFile
	for name, data := range m.files {
		list = append(list, &models.StoredFile{Name: name, Size: int64(len(data)), ModifiedAt: m.modified[name]})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name > list[j].Name
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockVolume) Location() string {
	return "mem://"
}

// AddFile places content directly into the volume
func (m *MockVolume) AddFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	m.modified[name] = time.Now()
}

// File returns stored content
func (m *MockVolume) File(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	return data, ok
}

// Names returns stored file names, sorted
func (m *MockVolume) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Writes returns how many successful Save calls were made
func (m *MockVolume) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// ErrDiskFull is a convenience error for SaveErr
var ErrDiskFull = errors.New("no space left on device")
