package services

import (
	"context"
	"sync"
	"time"

	"nup_registration/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zekroTJA/timedmap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is being submitted")
)

// SessionStore keeps NUP sessions for their lifetime. Lock guards a session
// against concurrent mutation; a second Lock on a held session fails with
// ErrSessionBusy instead of waiting.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (func(), error)
}

func NewSessionID() string {
	return uuid.New().String()
}

// MemorySessionStore expires idle sessions after ttl.
type MemorySessionStore struct {
	sessions *timedmap.TimedMap
	ttl      time.Duration
	onExpire func(sessionID string)

	mu    sync.Mutex
	locks map[string]struct{}
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	cleanup := min(ttl, time.Minute)
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &MemorySessionStore{
		sessions: timedmap.New(cleanup),
		ttl:      ttl,
		locks:    map[string]struct{}{},
	}
}

// OnExpire registers fn to run with the id of every session that expires.
// Explicitly deleted sessions do not trigger it. fn must not call back into
// the store.
func (m *MemorySessionStore) OnExpire(fn func(sessionID string)) {
	m.onExpire = fn
}

func (m *MemorySessionStore) Save(_ context.Context, session *models.Session) error {
	id := session.ID
	m.sessions.Set(id, cloneSession(session), m.ttl, func(interface{}) {
		if m.onExpire != nil {
			m.onExpire(id)
		}
	})
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	session, ok := m.sessions.GetValue(id).(*models.Session)
	if !ok || session == nil {
		return nil, ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.sessions.Remove(id)
	return nil
}

func (m *MemorySessionStore) Lock(_ context.Context, id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[id]; held {
		return nil, ErrSessionBusy
	}
	m.locks[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locks, id)
			m.mu.Unlock()
		})
	}, nil
}

// Close stops the expiry cleaner.
func (m *MemorySessionStore) Close() {
	m.sessions.StopCleaner()
}

func cloneSession(s *models.Session) *models.Session {
	c := *s
	c.Record.Files = append([]models.Attachment{}, s.Record.Files...)
	if s.Errors != nil {
		c.Errors = make(map[string]string, len(s.Errors))
		for k, v := range s.Errors {
			c.Errors[k] = v
		}
	}
	if s.Receipt != nil {
		receipt := *s.Receipt
		c.Receipt = &receipt
	}
	return &c
}
