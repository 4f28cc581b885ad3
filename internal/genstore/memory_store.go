package genstore

import (
	"sync"

	"ieltsprep/pkg/domain"
)

// MemoryStore keeps records in-process. Used by tests as a drop-in Store.
type MemoryStore struct {
	mu     sync.RWMutex
	jobs   map[string]domain.Job
	sets   map[string]domain.PracticeSet
	latest string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]domain.Job),
		sets: make(map[string]domain.PracticeSet),
	}
}

func (m *MemoryStore) PutJob(job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *MemoryStore) GetJob(id string) (domain.Job, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok, nil
}

func (m *MemoryStore) UpdateJob(id string, update JobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	applyJobUpdate(&job, update)
	m.jobs[id] = job
	return nil
}

func (m *MemoryStore) PutPracticeSet(ps domain.PracticeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[ps.ID] = ps
	m.latest = ps.ID
	return nil
}

func (m *MemoryStore) GetPracticeSet(id string) (domain.PracticeSet, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps, ok := m.sets[id]
	return ps, ok, nil
}

func (m *MemoryStore) LatestPracticeSetID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// PracticeSetCount reports how many practice sets were stored. Test helper.
func (m *MemoryStore) PracticeSetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sets)
}
