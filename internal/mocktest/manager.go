package mocktest

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/appstate"
	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/pkg/logger"
	"github.com/abisalde/student-portal/pkg/scheduler"
)

// Manager keeps the in-memory sessions and checks that callers only touch their own.
// Submitted sessions are forgotten after Options.Retention, and each user holds at
// most Options.MaxPerUser sessions.
type Manager struct {
	catalog *Catalog
	sched   scheduler.Scheduler
	opts    Options
	now     func() time.Time

	mu        sync.RWMutex
	sessions  map[string]*Session
	byUser    map[string][]string // session ids, oldest first
	evictions map[string]scheduler.Task
}

func NewManager(catalog *Catalog, sched scheduler.Scheduler, opts Options) *Manager {
	return &Manager{
		catalog:   catalog,
		sched:     sched,
		opts:      opts.withDefaults(),
		now:       time.Now,
		sessions:  make(map[string]*Session),
		byUser:    make(map[string][]string),
		evictions: make(map[string]scheduler.Task),
	}
}

func (m *Manager) Tests() []TestSummary {
	return m.catalog.List()
}

// Start opens a new session of testID for userID. The clock starts immediately.
func (m *Manager) Start(userID string, testID int) (*Session, error) {
	test, ok := m.catalog.Get(testID)
	if !ok {
		return nil, customErrors.TestNotFound
	}

	s := newSession(uuid.NewString(), userID, test, m.sched, m.opts, m.now())
	s.onSubmit = func(s *Session) {
		logger.Info("mock test submitted",
			zap.String("session_id", s.ID),
			zap.String("user_id", s.UserID),
			zap.Int("test_id", test.ID),
			zap.String("score", FormatScore(s.Score())),
		)
		m.scheduleEviction(s)
	}

	m.mu.Lock()
	var dropped []*Session
	for len(m.byUser[userID]) >= m.opts.MaxPerUser {
		if old := m.removeLocked(userID, m.byUser[userID][0]); old != nil {
			dropped = append(dropped, old)
		}
	}
	m.sessions[s.ID] = s
	m.byUser[userID] = append(m.byUser[userID], s.ID)
	m.mu.Unlock()

	for _, old := range dropped {
		old.Close()
	}
	return s, nil
}

func (m *Manager) scheduleEviction(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return
	}
	if _, ok := m.evictions[s.ID]; ok {
		return
	}
	m.evictions[s.ID] = m.sched.After(m.opts.Retention, func() {
		m.mu.Lock()
		m.removeLocked(s.UserID, s.ID)
		m.mu.Unlock()
	})
}

// removeLocked forgets a session and cancels its pending eviction. It returns the
// session so the caller can stop its countdown outside the lock.
func (m *Manager) removeLocked(userID, sessionID string) *Session {
	ids := m.byUser[userID]
	for i, id := range ids {
		if id == sessionID {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.byUser, userID)
	} else {
		m.byUser[userID] = ids
	}

	if task, ok := m.evictions[sessionID]; ok {
		task.Cancel()
		delete(m.evictions, sessionID)
	}

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(m.sessions, sessionID)
	return s
}

// Get returns the session when it belongs to userID. Other users' sessions look missing.
func (m *Manager) Get(userID, sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || s.UserID != userID {
		return nil, customErrors.TestSessionNotFound
	}
	return s, nil
}

func (m *Manager) Answer(userID, sessionID string, questionID int, choice string) (*Session, error) {
	s, err := m.Get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Answer(questionID, choice); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Submit(userID, sessionID string) (*Session, error) {
	s, err := m.Get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	s.Submit()
	return s, nil
}

// Close stops and forgets the session.
func (m *Manager) Close(userID, sessionID string) error {
	s, err := m.Get(userID, sessionID)
	if err != nil {
		return err
	}
	s.Close()

	m.mu.Lock()
	m.removeLocked(userID, sessionID)
	m.mu.Unlock()
	return nil
}

// CloseUser drops every session userID has open, e.g. on logout.
func (m *Manager) CloseUser(userID string) {
	m.mu.RLock()
	ids := append([]string(nil), m.byUser[userID]...)
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Close(userID, id)
	}
}

// Watch closes a user's sessions when they sign out.
func (m *Manager) Watch(state *appstate.Store) (unsubscribe func()) {
	return state.Subscribe(func(snap appstate.Snapshot) {
		if snap.UserID != "" && snap.Status == appstate.StatusUnauthenticated {
			m.CloseUser(snap.UserID)
		}
	})
}

// Shutdown stops every countdown and pending eviction.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.Close()
	}
	for id, task := range m.evictions {
		task.Cancel()
		delete(m.evictions, id)
	}
}

func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
