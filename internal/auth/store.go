package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
)

// SessionStore persists credentials by session ID. Implementations must offer read-after-write
// within a process and return [shared.ErrSessionNotFound] for unknown keys.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.Credential, error)
	Set(ctx context.Context, sessionID string, cred *models.Credential) error
	Delete(ctx context.Context, sessionID string) error
	// FindBySubject returns the session ID and credential most recently written for subjectID.
	FindBySubject(ctx context.Context, subjectID string) (string, *models.Credential, error)
	// DeleteBySubject removes every session belonging to subjectID.
	DeleteBySubject(ctx context.Context, subjectID string) error
}

type memoryEntry struct {
	cred *models.Credential
	seq  uint64
}

// MemoryStore is a process-local [SessionStore].
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	seq      uint64
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	}
	return e.cred.Clone(), nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, cred *models.Credential) error {
	if sessionID == "" || cred == nil {
		return fmt.Errorf("%w: session id and credential are required", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.sessions[sessionID] = memoryEntry{cred: cred.Clone(), seq: s.seq}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) FindBySubject(_ context.Context, subjectID string) (string, *models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latestID string
		latest   memoryEntry
	)
	for id, e := range s.sessions {
		if e.cred.SubjectID != subjectID {
			continue
		}
		if latestID == "" || e.seq > latest.seq {
			latestID, latest = id, e
		}
	}
	if latestID == "" {
		return "", nil, fmt.Errorf("%w: subject %s", shared.ErrSessionNotFound, subjectID)
	}
	return latestID, latest.cred.Clone(), nil
}

func (s *MemoryStore) DeleteBySubject(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if e.cred.SubjectID == subjectID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Len reports the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
