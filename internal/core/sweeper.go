package core

// sweeper.go drops sessions that have been idle longer than the session TTL.
//
// Sessions are only ever held in memory, so an abandoned browser tab would
// otherwise keep its uploaded tables alive until the process exits.

import (
	"context"
	"log/slog"
	"time"
)

// StartSessionSweeper removes expired sessions every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("session sweeper started",
		"interval", interval,
		"ttl", s.cfg.SessionTTL,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.sweepExpired(); n > 0 {
				slog.Info("expired sessions removed", "count", n, "active", s.ActiveSessions())
			}
		}
	}
}

// sweepExpired deletes every session idle for longer than the TTL and
// returns how many were removed.
func (s *Service) sweepExpired() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.cfg.SessionTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.SetActiveSessions(n)
	}
	return removed
}
