package session

import "sync"

// Snapshot is an immutable view of the session state.
type Snapshot struct {
	User    *UserProfile
	Loading bool

	// Version increases with every write.
	Version uint64
}

// SignedIn reports whether a user is present.
func (s Snapshot) SignedIn() bool {
	return s.User != nil
}

// State holds the current session. It starts loading with no user. Only
// the owning Provider writes it; everyone else reads snapshots.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Subscribers always observe the latest snapshot; intermediate ones may
//     be skipped when a subscriber is slow.
type State struct {
	mu   sync.RWMutex
	snap Snapshot

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// NewState returns a State in the loading phase.
func NewState() *State {
	return &State{
		snap: Snapshot{Loading: true},
		subs: make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe returns a channel that receives the current snapshot and every
// later change. The returned function unsubscribes and closes the channel.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.Snapshot()
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subsMu.Unlock()
		})
	}
}

// resolve ends loading and installs user (nil for signed out).
func (s *State) resolve(user *UserProfile) Snapshot {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.mu.Lock()
	s.snap = Snapshot{User: user, Version: s.snap.Version + 1}
	snap := s.snap
	s.mu.Unlock()

	for _, ch := range s.subs {
		// Replace any unread snapshot with the newest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}
