package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
)

const DefaultIdleTTL = 30 * time.Minute

// Store keeps one Controller per visitor, keyed by a random session id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
	deps     Dependencies
	idleTTL  time.Duration
}

func NewStore(deps Dependencies, idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	return &Store{
		sessions: make(map[string]*Controller),
		deps:     deps,
		idleTTL:  idleTTL,
	}
}

func (s *Store) Create() *Controller {
	c := NewController(uuid.NewString(), s.deps)

	s.mu.Lock()
	s.sessions[c.ID()] = c
	s.mu.Unlock()

	return c
}

func (s *Store) Get(id string) (*Controller, error) {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return c, nil
}

// Reset empties a session without changing its id.
func (s *Store) Reset(id string) error {
	c, err := s.Get(id)
	if err != nil {
		return err
	}
	c.Reset()
	return nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Sweep drops sessions that have been idle for longer than the TTL and
// returns how many were dropped.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.sessions {
		if now.Sub(c.LastActivity()) > s.idleTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.deps.Now()); n > 0 {
				s.deps.Logger.WithFields(logrus.Fields{
					"removed":   n,
					"remaining": s.Len(),
				}).Info("Swept idle booking sessions")
			}
		}
	}
}
