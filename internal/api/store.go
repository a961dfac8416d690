package api

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/spmio/internal/export"
	"github.com/samcharles93/spmio/pkg/spm"
)

// DefaultStoreCapacity bounds how many decoded uploads are kept in memory.
const DefaultStoreCapacity = 64

type loadEntry struct {
	record LoadRecord
	result *spm.Result
}

// LoadStore keeps recent decoded uploads so clients can fetch exports of them
// without re-uploading. The oldest entry is evicted when full.
type LoadStore struct {
	mu       sync.Mutex
	capacity int
	loads    map[string]*loadEntry
	order    []string
}

func NewLoadStore(capacity int) *LoadStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &LoadStore{
		capacity: capacity,
		loads:    make(map[string]*loadEntry),
	}
}

func (s *LoadStore) Create(name string, size int, res *spm.Result, doc *export.Document, now time.Time) LoadRecord {
	rec := LoadRecord{
		ID:        newLoadID(),
		Object:    "load",
		CreatedAt: now.Unix(),
		Name:      name,
		Size:      size,
		Document:  doc,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.capacity {
		delete(s.loads, s.order[0])
		s.order = s.order[1:]
	}
	s.loads[rec.ID] = &loadEntry{record: rec, result: res}
	s.order = append(s.order, rec.ID)
	return rec
}

func (s *LoadStore) Get(id string) (LoadRecord, *spm.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.loads[id]
	if !ok {
		return LoadRecord{}, nil, false
	}
	return e.record, e.result, true
}

// List returns records oldest first.
func (s *LoadStore) List() []LoadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LoadRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.loads[id].record)
	}
	return out
}

func (s *LoadStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loads[id]; !ok {
		return false
	}
	delete(s.loads, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

func newLoadID() string {
	return "load_" + uuid.NewString()
}
