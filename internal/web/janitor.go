package web

import (
	"context"
	"time"
)

// DefaultCleanupPeriod is how often the janitor runs when none is configured.
const DefaultCleanupPeriod = 5 * time.Minute

// RunJanitor removes expired sessions and evicts idle list controllers
// every cleanup period until ctx is done.
func (s *Server) RunJanitor(ctx context.Context) {
	period := s.cfg.CleanupPeriod
	if period <= 0 {
		period = DefaultCleanupPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup(ctx)
		}
	}
}

// Cleanup runs one janitor pass.
func (s *Server) Cleanup(ctx context.Context) {
	n, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		s.logger.Error("session cleanup failed", "error", err)
	} else if n > 0 {
		s.metrics.SessionsExpired(n)
		s.logger.Info("expired sessions removed", "count", n)
	}

	if s.cfg.IdleTimeout > 0 {
		if evicted := s.lists.EvictIdle(s.cfg.IdleTimeout); evicted > 0 {
			s.logger.Debug("idle controllers evicted", "count", evicted)
		}
	}
}
