// Package appstate holds the per-identity application state shared by the
// auth, guard and profile services.
package appstate

import (
	"sync"
	"time"
)

type Status int

const (
	StatusUnauthenticated Status = iota
	StatusLoading
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	default:
		return "unauthenticated"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Snapshot struct {
	UserID      string    `json:"uid,omitempty"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Status      Status    `json:"status"`
	Verified    bool      `json:"isVerified"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store keeps one Snapshot per identity and notifies subscribers after every change.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	subs      map[int]func(Snapshot)
	nextSub   int
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]Snapshot),
		subs:      make(map[int]func(Snapshot)),
		now:       time.Now,
	}
}

// Begin marks uid as Loading, keeping the last known fields.
func (s *Store) Begin(uid string) Snapshot {
	s.mu.Lock()
	snap := s.snapshots[uid]
	snap.UserID = uid
	snap.Status = StatusLoading
	snap.UpdatedAt = s.now()
	s.snapshots[uid] = snap
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

// Set publishes a Ready snapshot.
func (s *Store) Set(snap Snapshot) Snapshot {
	s.mu.Lock()
	snap.Status = StatusReady
	snap.UpdatedAt = s.now()
	s.snapshots[snap.UserID] = snap
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

// Get returns the Unauthenticated zero snapshot for unknown identities.
func (s *Store) Get(uid string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[uid]
	if !ok {
		return Snapshot{Status: StatusUnauthenticated}
	}
	return snap
}

// Clear tears down uid's state on sign-out.
func (s *Store) Clear(uid string) {
	s.mu.Lock()
	delete(s.snapshots, uid)
	s.mu.Unlock()

	s.notify(Snapshot{UserID: uid, Status: StatusUnauthenticated, UpdatedAt: s.now()})
}

func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}
