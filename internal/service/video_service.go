package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/repository"
	"golang.org/x/sync/errgroup"
)

// VideoService 视频登记、详情与列表
type VideoService struct {
	catalog *VideoCatalog
	oracle  *SubscriptionOracle
	videos  repository.VideoStore
	likes   repository.LikeStore
	views   *ViewService
}

func NewVideoService(catalog *VideoCatalog, oracle *SubscriptionOracle, videos repository.VideoStore, likes repository.LikeStore, views *ViewService) *VideoService {
	return &VideoService{catalog: catalog, oracle: oracle, videos: videos, likes: likes, views: views}
}

// NewVideoInput 登记视频的参数
type NewVideoInput struct {
	Title       string
	Description string
	Duration    time.Duration
	Visibility  model.VisibilityTier
}

// Register 登记视频元数据，时长与可见范围之后不可修改
func (s *VideoService) Register(ctx context.Context, ownerID uuid.UUID, in NewVideoInput) (*model.Video, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidField.WithReason("标题不能为空")
	}
	if in.Duration < 0 {
		return nil, ErrInvalidField.WithReason("时长不能为负数")
	}
	if in.Visibility == "" {
		in.Visibility = model.TierEveryone
	}
	if !in.Visibility.Valid() {
		return nil, ErrInvalidField.WithReason("未知的可见范围 %q", in.Visibility)
	}

	v := &model.Video{
		OwnerID:     ownerID,
		Title:       title,
		Description: in.Description,
		Duration:    in.Duration,
		Visibility:  in.Visibility,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("保存视频失败: %w", err)
	}
	log.Printf("[VideoService] 用户 %s 登记视频 %s (%s)", ownerID, v.ID, v.Visibility)
	return v, nil
}

// Delete 只有作者本人可以删除
func (s *VideoService) Delete(ctx context.Context, userID, videoID uuid.UUID) error {
	video, err := s.catalog.Get(ctx, videoID)
	if err != nil {
		return err
	}
	if video.OwnerID != userID {
		return ErrAccessDenied
	}
	if err := s.videos.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("删除视频失败: %w", err)
	}
	s.catalog.Forget(videoID)
	return nil
}

// VideoDetail 视频详情页数据
type VideoDetail struct {
	Video    *model.Video
	Likes    int64
	Dislikes int64
	Views    int64
	Resume   *model.View       // 当前用户的续播记录
	MyRating *model.LikeStatus // 当前用户的评价
}

// Get 权限校验通过后并发拉取统计数据
func (s *VideoService) Get(ctx context.Context, viewer Viewer, videoID uuid.UUID) (*VideoDetail, error) {
	video, err := s.views.authorizedVideo(ctx, viewer, videoID)
	if err != nil {
		return nil, err
	}

	detail := &VideoDetail{Video: video}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		detail.Likes, err = s.likes.Count(gctx, videoID, model.LikeStatusLike)
		return err
	})
	g.Go(func() (err error) {
		detail.Dislikes, err = s.likes.Count(gctx, videoID, model.LikeStatusDislike)
		return err
	})
	g.Go(func() (err error) {
		detail.Views, err = s.views.countViews(gctx, videoID)
		return err
	})
	if viewer.Identified() {
		g.Go(func() (err error) {
			detail.Resume, err = s.views.resumePosition(gctx, viewer.UserID, videoID)
			return err
		})
		g.Go(func() error {
			l, err := s.likes.Get(gctx, viewer.UserID, videoID)
			if err != nil {
				return err
			}
			if l != nil {
				status := l.Status
				detail.MyRating = &status
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("获取视频详情失败: %w", err)
	}
	return detail, nil
}

// ListLatest 最新视频
func (s *VideoService) ListLatest(ctx context.Context, viewer Viewer, limit, offset int) ([]*model.Video, error) {
	videos, err := s.videos.ListLatest(ctx, viewer.IDPtr(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("获取视频列表失败: %w", err)
	}
	return s.filterVisible(ctx, viewer, videos)
}

// ListByOwner 某个用户上传的视频
func (s *VideoService) ListByOwner(ctx context.Context, viewer Viewer, ownerID uuid.UUID, limit, offset int) ([]*model.Video, error) {
	videos, err := s.videos.ListByOwner(ctx, ownerID, viewer.IDPtr(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("获取用户视频失败: %w", err)
	}
	return s.filterVisible(ctx, viewer, videos)
}

// ListViewed 当前用户看过的视频，按最近观看排序
func (s *VideoService) ListViewed(ctx context.Context, viewer Viewer, limit, offset int) ([]*model.Video, error) {
	videos, err := s.videos.ListViewedBy(ctx, viewer.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("获取观看历史失败: %w", err)
	}
	return s.filterVisible(ctx, viewer, videos)
}

// filterVisible 逐条按作者校验可见范围，订阅状态按作者去重后并发查询
func (s *VideoService) filterVisible(ctx context.Context, viewer Viewer, videos []*model.Video) ([]*model.Video, error) {
	seen := make(map[uuid.UUID]struct{})
	var owners []uuid.UUID
	for _, v := range videos {
		if _, ok := seen[v.OwnerID]; !ok {
			seen[v.OwnerID] = struct{}{}
			owners = append(owners, v.OwnerID)
		}
	}

	flags, err := s.oracle.Flags(ctx, viewer, owners)
	if err != nil {
		return nil, err
	}

	res := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		scoped := viewer.WithSubscription(v.OwnerID, flags[v.OwnerID])
		if Authorize(scoped, v.OwnerID, v.Visibility) == nil {
			res = append(res, v)
		}
	}
	return res, nil
}
