package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/repository"
)

// QuotaTracker 统计某身份在滑动窗口内对某视频的计数观看次数
type QuotaTracker struct {
	views  repository.ViewStore
	window time.Duration
	limit  int
	now    func() time.Time
}

// NewQuotaTracker 创建配额统计器
func NewQuotaTracker(views repository.ViewStore, window time.Duration, limit int) *QuotaTracker {
	return &QuotaTracker{views: views, window: window, limit: limit, now: time.Now}
}

// CountRecentViews 窗口截止于当前时刻
func (q *QuotaTracker) CountRecentViews(ctx context.Context, identity model.ViewIdentity, videoID uuid.UUID) (int64, error) {
	return q.views.CountForIdentityInWindow(ctx, identity, videoID, q.now().Add(-q.window))
}

// Exceeded 已达上限时返回 true
func (q *QuotaTracker) Exceeded(ctx context.Context, identity model.ViewIdentity, videoID uuid.UUID) (bool, error) {
	n, err := q.CountRecentViews(ctx, identity, videoID)
	if err != nil {
		return false, err
	}
	return n >= int64(q.limit), nil
}
