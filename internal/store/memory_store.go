package store

import (
	"sort"
	"sync"

	"ieltsprep/internal/util"
	"ieltsprep/pkg/domain"
)

// MemoryStore keeps accounts and progress in-process. Used in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User // key: user ID
	names    map[string]string      // username -> user ID
	progress map[string]domain.Progress
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		names:    make(map[string]string),
		progress: make(map[string]domain.Progress),
	}
}

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.names[u.Username] = u.ID
	return nil
}

func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.names[username]
	return ok, nil
}

func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.names[username]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetProgress(userID, practiceSetID string) (domain.Progress, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[userID+"|"+practiceSetID]
	return p, ok, nil
}

func (m *MemoryStore) SaveProgress(p domain.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[p.UserID+"|"+p.PracticeSetID] = p
	return nil
}

func (m *MemoryStore) ListProgressByUser(userID string) ([]domain.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Progress, 0)
	for _, p := range m.progress {
		if p.UserID == userID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].DateAttempted.After(res[j].DateAttempted)
	})
	return res, nil
}

// MemorySessionStore keeps session tokens in-process. Used in tests.
type MemorySessionStore struct {
	mu   sync.RWMutex
	sess map[string]string // token -> user ID
}

// NewMemorySessionStore initializes an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sess: make(map[string]string)}
}

func (m *MemorySessionStore) NewSession(userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := util.NewID()
	m.sess[token] = userID
	return token, nil
}

func (m *MemorySessionStore) GetUserIDByToken(token string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uid, ok := m.sess[token]
	return uid, ok, nil
}

func (m *MemorySessionStore) DeleteSession(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sess, token)
	return nil
}
