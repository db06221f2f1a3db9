package remote

import (
	"context"
	"sync"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
)

// memStore is an in-memory Store with controllable failures, mimicking the
// remote's server-side read-modify-write on increments.
type memStore struct {
	mu        sync.Mutex
	daily     map[string]*domain.DailyAggregate // user/dateKey
	sessions  map[string]*domain.Session        // user/dateKey/sessionID
	failDaily int                               // fail this many UpdateDaily calls
	calls     []int                             // delta of each UpdateDaily attempt
}

func newMemStore() *memStore {
	return &memStore{
		daily:    make(map[string]*domain.DailyAggregate),
		sessions: make(map[string]*domain.Session),
	}
}

func dailyKey(user, dateKey string) string { return user + "/" + dateKey }

func (m *memStore) StoreDaily(_ context.Context, user, dateKey string, agg *domain.DailyAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily[dailyKey(user, dateKey)] = agg
	return nil
}

func (m *memStore) UpdateDaily(_ context.Context, user, dateKey string, deltaSeconds int, task *domain.TaskRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, deltaSeconds)
	if m.failDaily > 0 {
		m.failDaily--
		return ErrUnavailable
	}
	agg, ok := m.daily[dailyKey(user, dateKey)]
	if !ok {
		agg = domain.NewDailyAggregate(dateKey)
		m.daily[dailyKey(user, dateKey)] = agg
	}
	agg.AddDelta(deltaSeconds, task)
	return nil
}

func (m *memStore) StoreSession(_ context.Context, user, dateKey string, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[dailyKey(user, dateKey)+"/"+s.ID] = s
	return nil
}

func (m *memStore) UpdateSession(_ context.Context, user, dateKey, sessionID string, upd SessionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[dailyKey(user, dateKey)+"/"+sessionID]
	if !ok {
		return ErrNotFound
	}
	if upd.DurationSeconds != nil {
		s.DurationSeconds = *upd.DurationSeconds
	}
	if upd.Active != nil {
		s.Active = *upd.Active
	}
	if upd.EndedAt != nil {
		s.EndedAt = upd.EndedAt
	}
	return nil
}

func (m *memStore) GetDaily(_ context.Context, user, dateKey string) (*domain.DailyAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.daily[dailyKey(user, dateKey)]
	if !ok {
		return nil, ErrNotFound
	}
	return agg, nil
}

func (m *memStore) GetSessions(_ context.Context, user, dateKey string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	prefix := dailyKey(user, dateKey) + "/"
	for key, s := range m.sessions {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) dailyTotal(user, dateKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.daily[dailyKey(user, dateKey)]
	if !ok {
		return 0
	}
	return agg.TotalTimeSeconds
}
