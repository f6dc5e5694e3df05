package review

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gardar/ocralign/pkg/align"
	"github.com/gardar/ocralign/pkg/report"
)

// Session is one aligned run kept for review.
type Session struct {
	ID         string
	Name       string
	Created    time.Time
	Lines      []align.LineResult
	Confusions *align.ConfusionCount
	Summary    align.Summary
}

// Store keeps review sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Add stores a run under a fresh id and returns the id.
func (s *Store) Add(name string, run *align.Run, now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := report.NewRunID()
	for s.sessions[id] != nil {
		id = report.NewRunID()
	}
	s.sessions[id] = &Session{
		ID:         id,
		Name:       name,
		Created:    now,
		Lines:      slices.Clone(run.Lines),
		Confusions: run.Confusions,
		Summary:    run.Summary,
	}
	s.order = append(s.order, id)
	return id
}

// Get returns a copy of the session, safe to read while others edit it.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	cp := *sess
	cp.Lines = slices.Clone(sess.Lines)
	return cp, true
}

// List returns the sessions, newest first.
func (s *Store) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		sess := s.sessions[s.order[i]]
		out = append(out, Session{ID: sess.ID, Name: sess.Name, Created: sess.Created, Summary: sess.Summary})
	}
	return out
}

// SetFinal overrides the final text of one line.
func (s *Store) SetFinal(id string, index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}
	if index < 0 || index >= len(sess.Lines) {
		return fmt.Errorf("run %s has no line %d", id, index+1)
	}
	sess.Lines[index].Final = text
	return nil
}
