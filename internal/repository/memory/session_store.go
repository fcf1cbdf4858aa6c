package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-eventplanner-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionStore is an in-memory ProcessingSession store backed by go-cache.
// It backs dev mode (no database) and unit tests of the pipeline and stream.
// Reads return copies: the orchestrator and stream publishers rendezvous only
// through Save/Get, never through shared structs.
type SessionStore struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewSessionStore() *SessionStore {
	// Sessions are short-lived; an hour of retention is plenty for dev mode,
	// purge sweep every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionStore{
		cache: c,
	}
}

func (s *SessionStore) Create(ctx context.Context, session *entity.ProcessingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	session.CreatedAt = time.Now()

	cp := *session
	s.cache.Set(session.Id.String(), &cp, cache.DefaultExpiration)
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.cache.Get(id.String())
	if !found {
		return nil, nil
	}
	cp := *x.(*entity.ProcessingSession)
	return &cp, nil
}

func (s *SessionStore) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil || sess == nil || sess.IsTerminal() {
		return err
	}
	sess.Status = status
	s.touch(sess)
	return nil
}

func (s *SessionStore) UpdateOutput(ctx context.Context, id uuid.UUID, output *entity.ProcessedOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil || sess == nil || sess.IsTerminal() {
		// Progress writes after the terminal state are ignored, not rejected.
		return err
	}
	sess.Output = output
	s.touch(sess)
	return nil
}

func (s *SessionStore) Finalize(ctx context.Context, session *entity.ProcessingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(session.Id)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %s not found", session.Id)
	}
	if sess.IsTerminal() {
		return nil
	}
	sess.Status = session.Status
	sess.Output = session.Output
	sess.ErrorMessage = session.ErrorMessage
	sess.ProcessingTimeMs = session.ProcessingTimeMs
	sess.TokensUsed = session.TokensUsed
	sess.Confidence = session.Confidence
	s.touch(sess)
	return nil
}

func (s *SessionStore) Delete(id uuid.UUID) {
	s.cache.Delete(id.String())
}

// load returns the stored pointer; callers hold s.mu.
func (s *SessionStore) load(id uuid.UUID) (*entity.ProcessingSession, error) {
	x, found := s.cache.Get(id.String())
	if !found {
		return nil, nil
	}
	return x.(*entity.ProcessingSession), nil
}

func (s *SessionStore) touch(sess *entity.ProcessingSession) {
	now := time.Now()
	sess.UpdatedAt = &now
	cp := *sess
	s.cache.Set(sess.Id.String(), &cp, cache.DefaultExpiration)
}
