package orchestrator

import (
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// Factory builds the orchestrator for a new session id.
type Factory func(sessionID string) (*Orchestrator, error)

// Manager is the in-process lookup table of sessions. Sessions live until the
// process exits unless MaxSessions or SessionIdleTTL is set. A session that is
// mid-call when the cache evicts it is kept aside and handed back on the next
// lookup, so one id never maps to two live orchestrators.
type Manager struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *Orchestrator]
	factory  Factory

	// pinMu guards pinned. It is taken from the eviction callback, which runs
	// under the cache lock, so it must never be held while calling the cache.
	pinMu  sync.Mutex
	pinned map[string]*Orchestrator
}

func NewManager(cfg Config, factory Factory) *Manager {
	m := &Manager{
		factory: factory,
		pinned:  map[string]*Orchestrator{},
	}
	m.sessions = expirable.NewLRU[string, *Orchestrator](max(cfg.MaxSessions, 0), m.onEvict, cfg.SessionIdleTTL)
	return m
}

func (m *Manager) onEvict(id string, o *Orchestrator) {
	if o.mu.TryLock() {
		o.mu.Unlock()
		log.Debug().Str("session_id", id).Msg("session evicted")
		return
	}
	m.pinMu.Lock()
	m.pinned[id] = o
	m.pinMu.Unlock()
	log.Debug().Str("session_id", id).Msg("busy session kept past eviction")
}

// Session returns the orchestrator for id, creating it on first use.
// Each lookup refreshes the idle timer.
func (m *Manager) Session(id string) (*Orchestrator, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.sessions.Get(id); ok {
		m.sessions.Add(id, o)
		return o, nil
	}
	// An expired entry may still sit in the cache; removing it runs the
	// eviction callback so a busy one gets pinned instead of replaced.
	m.sessions.Remove(id)

	o, ok := m.takePinned(id)
	if !ok {
		var err error
		if o, err = m.factory(id); err != nil {
			return nil, err
		}
		log.Debug().Str("session_id", id).Msg("session created")
	}
	m.sessions.Add(id, o)
	m.releaseIdlePinned()
	return o, nil
}

func (m *Manager) takePinned(id string) (*Orchestrator, bool) {
	m.pinMu.Lock()
	defer m.pinMu.Unlock()
	o, ok := m.pinned[id]
	delete(m.pinned, id)
	return o, ok
}

// releaseIdlePinned drops pinned sessions whose call has finished.
func (m *Manager) releaseIdlePinned() {
	m.pinMu.Lock()
	defer m.pinMu.Unlock()
	for id, o := range m.pinned {
		if o.mu.TryLock() {
			o.mu.Unlock()
			delete(m.pinned, id)
			log.Debug().Str("session_id", id).Msg("session evicted")
		}
	}
}

// Remove drops a session. It reports whether the session existed.
func (m *Manager) Remove(id string) bool {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	existed := m.sessions.Remove(id)
	_, pinned := m.takePinned(id)
	return existed || pinned
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.sessions.Len()
	m.pinMu.Lock()
	defer m.pinMu.Unlock()
	return n + len(m.pinned)
}
