package housekeeping

import (
	"context"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

// cronで掃除ジョブを回す
type Scheduler struct {
	cron *cron.Cron
	svc  *CleanupService
	log  *zap.Logger
}

func NewScheduler(svc *CleanupService, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), svc: svc, log: log}

	jobs := []struct {
		spec string
		name string
		fn   func(context.Context) error
	}{
		{"@every 1m", "mark_offline", svc.MarkInactiveUsersOffline},
		{"@daily", "prune_product_views", svc.PruneProductViews},
		{"@daily", "prune_refresh_tokens", svc.PruneExpiredRefreshTokens},
	}
	for _, j := range jobs {
		if err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.fn)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.log.Warn("housekeeping job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("housekeeping job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("housekeeping scheduler started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("housekeeping scheduler stopped")
}
