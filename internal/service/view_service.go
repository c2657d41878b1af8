package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/config"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/repository"
	"github.com/user/tubeview/internal/utils"
)

// ViewService 记录观看、统计观看数、续播位置
type ViewService struct {
	catalog  *VideoCatalog
	oracle   *SubscriptionOracle
	views    repository.ViewStore
	pointers repository.WatchPointerStore
	tx       repository.ViewTxRunner
	fraud    *FraudChecker // 为 nil 时跳过指纹校验
	quota    *QuotaTracker
	counts   utils.CountCache
	minView  time.Duration
	now      func() time.Time
}

// ViewServiceDeps 构造 ViewService 所需的依赖
type ViewServiceDeps struct {
	Catalog  *VideoCatalog
	Oracle   *SubscriptionOracle
	Views    repository.ViewStore
	Pointers repository.WatchPointerStore
	Tx       repository.ViewTxRunner
	Fraud    *FraudChecker
	Counts   utils.CountCache
	Config   config.ViewConfig
}

func NewViewService(d ViewServiceDeps) *ViewService {
	return &ViewService{
		catalog:  d.Catalog,
		oracle:   d.Oracle,
		views:    d.Views,
		pointers: d.Pointers,
		tx:       d.Tx,
		fraud:    d.Fraud,
		quota:    NewQuotaTracker(d.Views, d.Config.QuotaWindow, d.Config.DailyLimit),
		counts:   d.Counts,
		minView:  d.Config.MinCountedViewing,
		now:      time.Now,
	}
}

func viewCountKey(videoID uuid.UUID) string {
	return "views:" + videoID.String()
}

// authorizedVideo 加载视频并做权限校验
func (s *ViewService) authorizedVideo(ctx context.Context, viewer Viewer, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.catalog.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	viewer, err = s.oracle.ViewerFor(ctx, viewer, video.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(viewer, video.OwnerID, video.Visibility); err != nil {
		return nil, err
	}
	return video, nil
}

// RecordView 校验 -> 指纹 -> 配额 -> 写入观看记录并更新续播指针。
// 不可信、过短或超额的观看仍然落库，只是 viewing_time 置空不计数。
func (s *ViewService) RecordView(ctx context.Context, viewer Viewer, report ViewReport) (*model.View, error) {
	video, err := s.authorizedVideo(ctx, viewer, report.VideoID)
	if err != nil {
		return nil, err
	}

	report, err = ValidateAndClamp(report, video)
	if err != nil {
		return nil, err
	}

	counted := true
	if report.Fingerprint != "" && s.fraud != nil {
		plausible, err := s.fraud.IsViewPlausible(ctx, report.Fingerprint)
		if err != nil {
			return nil, err
		}
		if !plausible {
			log.Printf("[ViewService] 设备 %s 观看视频 %s 判定为不可信，不计数", utils.HashFingerprint(report.Fingerprint), video.ID)
			counted = false
		}
	}

	if counted && report.ViewingTime < s.minView {
		counted = false
	}

	identity := viewer.Identity()
	identity.Fingerprint = report.Fingerprint
	if counted {
		exceeded, err := s.quota.Exceeded(ctx, identity, video.ID)
		if err != nil {
			return nil, fmt.Errorf("统计观看配额失败: %w", err)
		}
		if exceeded {
			counted = false
		}
	}

	record := &model.View{
		VideoID:      video.ID,
		ViewerID:     viewer.IDPtr(),
		StopTimecode: report.StopTimecode,
		CreatedAt:    s.now(),
	}
	if counted {
		vt := report.ViewingTime
		record.ViewingTime = &vt
		if report.Fingerprint != "" {
			fp := report.Fingerprint
			record.Fingerprint = &fp
		}
	}

	err = s.tx.WithinViewTx(ctx, func(views repository.ViewStore, pointers repository.WatchPointerStore) error {
		if err := views.Insert(ctx, record); err != nil {
			return err
		}
		if !viewer.Identified() {
			return nil
		}
		return pointers.Upsert(ctx, &model.UserView{
			ViewerID:  viewer.UserID,
			VideoID:   video.ID,
			ViewID:    record.ID,
			UpdatedAt: record.CreatedAt,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("保存观看记录失败: %w", err)
	}

	if counted && s.counts != nil {
		s.counts.Invalidate(ctx, viewCountKey(video.ID))
	}
	return record, nil
}

// RemoveUserView 只删除续播指针，观看记录保留
func (s *ViewService) RemoveUserView(ctx context.Context, viewerID, videoID uuid.UUID) error {
	if _, err := s.catalog.Get(ctx, videoID); err != nil {
		return err
	}
	deleted, err := s.pointers.Delete(ctx, viewerID, videoID)
	if err != nil {
		return fmt.Errorf("删除观看指针失败: %w", err)
	}
	if !deleted {
		return ErrNonExistentView
	}
	return nil
}

// GetVideoViewCount 计数观看总数，结果短期缓存
func (s *ViewService) GetVideoViewCount(ctx context.Context, viewer Viewer, videoID uuid.UUID) (int64, error) {
	if _, err := s.authorizedVideo(ctx, viewer, videoID); err != nil {
		return 0, err
	}
	return s.countViews(ctx, videoID)
}

func (s *ViewService) countViews(ctx context.Context, videoID uuid.UUID) (int64, error) {
	key := viewCountKey(videoID)
	if s.counts != nil {
		if n, ok := s.counts.GetCount(ctx, key); ok {
			return n, nil
		}
	}
	n, err := s.views.CountForVideo(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("统计观看数失败: %w", err)
	}
	if s.counts != nil {
		s.counts.SetCount(ctx, key, n)
	}
	return n, nil
}

// GetResumePosition 权限校验后返回续播位置，没有续播指针时返回 nil
func (s *ViewService) GetResumePosition(ctx context.Context, viewer Viewer, videoID uuid.UUID) (*model.View, error) {
	if !viewer.Identified() {
		return nil, nil
	}
	if _, err := s.authorizedVideo(ctx, viewer, videoID); err != nil {
		return nil, err
	}
	return s.resumePosition(ctx, viewer.UserID, videoID)
}

// resumePosition 调用方需已完成权限校验
func (s *ViewService) resumePosition(ctx context.Context, viewerID, videoID uuid.UUID) (*model.View, error) {
	p, err := s.pointers.Get(ctx, viewerID, videoID)
	if err != nil {
		return nil, fmt.Errorf("查询观看指针失败: %w", err)
	}
	if p == nil {
		return nil, nil
	}
	v, err := s.views.Get(ctx, p.ViewID)
	if err != nil {
		return nil, fmt.Errorf("查询观看记录失败: %w", err)
	}
	return v, nil
}
