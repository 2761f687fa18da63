package upload

import (
	"errors"
	"sync"
	"time"

	"github.com/csv-backend/backend/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown upload ids.
var ErrNotFound = errors.New("upload not found")

// Manager keeps an in-memory account of recent uploads. It is diagnostic
// only: records are lost on restart and the oldest are evicted once
// capacity is reached.
type Manager struct {
	mu       sync.RWMutex
	records  map[string]*models.UploadRecord
	order    []string // ids, oldest first
	capacity int
}

// NewManager creates a tracker holding at most capacity records.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = 1
	}
	return &Manager{
		records:  make(map[string]*models.UploadRecord),
		capacity: capacity,
	}
}

// Begin registers an upload that has just arrived and returns its id.
func (m *Manager) Begin(receivedAt time.Time, size int64) string {
	rec := &models.UploadRecord{
		ID:         uuid.New().String(),
		ReceivedAt: receivedAt,
		Size:       size,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	for len(m.order) > m.capacity {
		delete(m.records, m.order[0])
		m.order = m.order[1:]
	}

	return rec.ID
}

// MarkStored records a successful write.
func (m *Manager) MarkStored(id, storedAs string, rows, skipped int) {
	m.update(id, func(r *models.UploadRecord) {
		r.Status = models.UploadStatusStored
		r.StoredAs = storedAs
		r.Rows = rows
		r.Skipped = skipped
	})
}

// MarkRejected records a body that could not be decoded.
func (m *Manager) MarkRejected(id string, err error) {
	m.update(id, func(r *models.UploadRecord) {
		r.Status = models.UploadStatusRejected
		r.Error = err.Error()
	})
}

// MarkFailed records a decoded frame that could not be written.
func (m *Manager) MarkFailed(id string, rows, skipped int, err error) {
	m.update(id, func(r *models.UploadRecord) {
		r.Status = models.UploadStatusFailed
		r.Rows = rows
		r.Skipped = skipped
		r.Error = err.Error()
	})
}

func (m *Manager) update(id string, fn func(r *models.UploadRecord)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[id]; ok {
		fn(rec)
	}
}

// Get returns a copy of one record.
func (m *Manager) Get(id string) (models.UploadRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return models.UploadRecord{}, ErrNotFound
	}
	return *rec, nil
}

// Recent returns copies of the newest records first.
func (m *Manager) Recent(limit int) []models.UploadRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]models.UploadRecord, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		list = append(list, *m.records[m.order[i]])
		if limit > 0 && len(list) >= limit {
			break
		}
	}
	return list
}

// CleanupOld removes records received before now-maxAge.
func (m *Manager) CleanupOld(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		if m.records[id].ReceivedAt.Before(cutoff) {
			delete(m.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed
}
