package housekeeping

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// 最終アクセスからこの時間でオフライン扱い
	DefaultOfflineAfter = 5 * time.Minute
	// 閲覧記録の保持期間
	DefaultViewRetention = 180 * 24 * time.Hour
)

type ActivityStore interface {
	MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ViewStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type RefreshTokenStore interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type CleanupService struct {
	activity      ActivityStore
	views         ViewStore
	tokens        RefreshTokenStore
	log           *zap.Logger
	offlineAfter  time.Duration
	viewRetention time.Duration
	now           func() time.Time
}

func NewCleanupService(activity ActivityStore, views ViewStore, tokens RefreshTokenStore, log *zap.Logger) *CleanupService {
	return &CleanupService{
		activity:      activity,
		views:         views,
		tokens:        tokens,
		log:           log,
		offlineAfter:  DefaultOfflineAfter,
		viewRetention: DefaultViewRetention,
		now:           time.Now,
	}
}

func (s *CleanupService) MarkInactiveUsersOffline(ctx context.Context) error {
	n, err := s.activity.MarkOfflineBefore(ctx, s.now().Add(-s.offlineAfter))
	if err != nil {
		s.log.Error("mark offline failed", zap.Error(err))
		return err
	}
	s.log.Info("users marked offline", zap.Int64("count", n))
	return nil
}

func (s *CleanupService) PruneProductViews(ctx context.Context) error {
	n, err := s.views.DeleteOlderThan(ctx, s.now().Add(-s.viewRetention))
	if err != nil {
		s.log.Error("prune product views failed", zap.Error(err))
		return err
	}
	s.log.Info("product views pruned", zap.Int64("count", n))
	return nil
}

func (s *CleanupService) PruneExpiredRefreshTokens(ctx context.Context) error {
	n, err := s.tokens.DeleteExpiredBefore(ctx, s.now())
	if err != nil {
		s.log.Error("prune refresh tokens failed", zap.Error(err))
		return err
	}
	s.log.Info("refresh tokens pruned", zap.Int64("count", n))
	return nil
}

// 全ジョブを1回ずつ流す。1つ失敗しても残りは続ける
func (s *CleanupService) RunAll(ctx context.Context) error {
	var first error
	for _, job := range []func(context.Context) error{
		s.MarkInactiveUsersOffline,
		s.PruneProductViews,
		s.PruneExpiredRefreshTokens,
	} {
		if err := job(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
