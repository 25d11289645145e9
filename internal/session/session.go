// Package session tracks the per-upload lifecycle:
//
//	Uploaded → Parsed → ColumnsSelected → Generating → Generated|Failed
//
// Failed is reachable from Parsed/ColumnsSelected (malformed input on
// re-parse) and from Generating (upstream or unparsable-reply failures).
// All state is in memory and scoped to one upload; nothing is persisted.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/personaforge/internal/persona"
	"github.com/kalambet/personaforge/internal/questionnaire"
)

type State string

const (
	StateUploaded        State = "uploaded"
	StateParsed          State = "parsed"
	StateColumnsSelected State = "columns_selected"
	StateGenerating      State = "generating"
	StateGenerated       State = "generated"
	StateFailed          State = "failed"
)

// FailureKind mirrors the user-facing error taxonomy.
type FailureKind string

const (
	FailMalformedInput     FailureKind = "malformed_input"
	FailUpstream           FailureKind = "upstream_error"
	FailUpstreamTimeout    FailureKind = "upstream_timeout"
	FailUnparsableResponse FailureKind = "unparsable_response"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.New("session not found")

// ErrGenerationInProgress is returned when a state change would race the
// session's in-flight generation.
var ErrGenerationInProgress = errors.New("generation already in progress")

// Session is the mutable state of one uploaded questionnaire. All access
// goes through the Manager, which holds the lock.
type Session struct {
	ID      string
	State   State
	RawCSV  string
	Columns questionnaire.Columns

	// Doc is set once parsing succeeds. A later failure never clears it.
	Doc      *questionnaire.Document
	Personas []persona.Persona

	FailKind FailureKind
	FailMsg  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Manager owns all live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a new session holding the raw upload.
func (m *Manager) Create(rawCSV string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &Session{
		ID:        uuid.New().String(),
		State:     StateUploaded,
		RawCSV:    rawCSV,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[s.ID] = s
	return s
}

// Get returns a snapshot copy of the session.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *s, nil
}

// Delete removes a session. Deleting an unknown ID returns ErrNotFound.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// SetParsed records a successful parse of the uploaded CSV. Rejected while
// a generation is in flight; the state machine has no edge out of
// Generating other than Generated or Failed.
func (m *Manager) SetParsed(id string, doc *questionnaire.Document) error {
	return m.update(id, func(s *Session) error {
		if s.State == StateGenerating {
			return ErrGenerationInProgress
		}
		s.Doc = doc
		s.State = StateParsed
		s.FailKind = ""
		s.FailMsg = ""
		return nil
	})
}

// SetColumns records a user-driven column selection and its re-parse
// result. Rejected while a generation is in flight.
func (m *Manager) SetColumns(id string, cols questionnaire.Columns, doc *questionnaire.Document) error {
	return m.update(id, func(s *Session) error {
		if s.State == StateGenerating {
			return ErrGenerationInProgress
		}
		s.Columns = cols
		s.Doc = doc
		s.State = StateColumnsSelected
		s.FailKind = ""
		s.FailMsg = ""
		return nil
	})
}

// BeginGeneration transitions into Generating. Only Parsed and
// ColumnsSelected sessions may start generating; at most one generation per
// session is in flight.
func (m *Manager) BeginGeneration(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	switch s.State {
	case StateParsed, StateColumnsSelected:
	case StateGenerating:
		return Session{}, ErrGenerationInProgress
	default:
		return Session{}, fmt.Errorf("cannot generate from state %q", s.State)
	}

	s.State = StateGenerating
	s.UpdatedAt = m.now()
	return *s, nil
}

// CompleteGeneration records the generated personas.
func (m *Manager) CompleteGeneration(id string, personas []persona.Persona) error {
	return m.update(id, func(s *Session) error {
		s.Personas = personas
		s.State = StateGenerated
		s.FailKind = ""
		s.FailMsg = ""
		return nil
	})
}

// Fail moves the session to Failed with the given taxonomy kind. Any parsed
// document is left in place so the user can retry without re-uploading.
func (m *Manager) Fail(id string, kind FailureKind, msg string) error {
	return m.update(id, func(s *Session) error {
		s.State = StateFailed
		s.FailKind = kind
		s.FailMsg = msg
		return nil
	})
}

func (m *Manager) update(id string, fn func(*Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(s); err != nil {
		return err
	}
	s.UpdatedAt = m.now()
	return nil
}

// PurgeExpired drops sessions idle for longer than ttl and reports how many
// were removed.
func (m *Manager) PurgeExpired(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Sweep runs PurgeExpired on the given interval until ctx is cancelled.
func (m *Manager) Sweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.PurgeExpired(ttl); n > 0 {
				slog.Debug("purged expired sessions", "count", n)
			}
		}
	}
}
