package feed

import (
	"sync"

	"github.com/roam-social/roam-feed/internal/core/storage"
)

// Service fronts one Engine per authenticated identity over HTTP. Engines are
// created lazily on first touch and live for the service's lifetime (one
// session per user in this deployment).
type Service struct {
	newEngine  func(userID string) *Engine
	attendance storage.AttendanceStore

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewService creates the feed API service. newEngine builds a fully wired
// engine bound to the given identity.
func NewService(newEngine func(userID string) *Engine, attendance storage.AttendanceStore) *Service {
	if newEngine == nil {
		panic("feed: engine factory must not be nil")
	}
	if attendance == nil {
		panic("feed: attendance store must not be nil")
	}
	return &Service{
		newEngine:  newEngine,
		attendance: attendance,
		engines:    make(map[string]*Engine),
	}
}

// EngineFor returns the identity's engine, creating it on first use.
func (s *Service) EngineFor(userID string) *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eng, ok := s.engines[userID]; ok {
		return eng
	}
	eng := s.newEngine(userID)
	s.engines[userID] = eng
	return eng
}

// Close shuts down every engine.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, eng := range s.engines {
		eng.Close()
	}
}
