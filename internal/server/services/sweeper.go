package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/logging"
	"github.com/dmitrijs2005/bulletin/internal/server/metrics"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/repomanager"
)

// expiredRetention keeps expired records around for a while after expiry.
const expiredRetention = time.Hour

// SessionSweeper periodically deletes expired refresh token records. It is
// housekeeping only: expired records are rejected whether or not they were
// swept.
type SessionSweeper struct {
	repomanager repomanager.RepositoryManager
	interval    time.Duration
	retention   time.Duration
	now         func() time.Time
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewSessionSweeper(m repomanager.RepositoryManager, interval time.Duration, log logging.Logger, mt *metrics.Metrics) *SessionSweeper {
	if log == nil {
		log = logging.Nop{}
	}
	return &SessionSweeper{
		repomanager: m,
		interval:    interval,
		retention:   expiredRetention,
		now:         time.Now,
		log:         log.With("module", "sweeper"),
		metrics:     mt,
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweeper and Run returns at once.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info(ctx, "sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass. Failures are logged and returned.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.repomanager.Conn()).DeleteExpired(ctx, s.now(), s.retention)
	if err != nil {
		s.log.Error(ctx, "sweep failed", "error", err)
		return 0, err
	}

	s.metrics.SweeperDeleted(n)
	if n > 0 {
		s.log.Info(ctx, "expired sessions deleted", "count", n)
	}
	return n, nil
}
