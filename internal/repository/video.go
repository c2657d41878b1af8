package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"gorm.io/gorm"
)

// VideoRepository 视频元数据仓库
type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Get 根据 ID 获取视频
func (r *VideoRepository) Get(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	var v model.Video
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create 登记视频元数据
func (r *VideoRepository) Create(ctx context.Context, v *model.Video) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// Delete 删除视频及其观看、续播、评价、评论数据
func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewUserViewRepository(tx).DeleteByVideo(ctx, id); err != nil {
			return err
		}
		if err := NewViewRepository(tx).DeleteByVideo(ctx, id); err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&model.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Video{}, "id = ?", id).Error
	})
}

// ListLatest 按上传时间倒序列出对 viewer 可见的视频
func (r *VideoRepository) ListLatest(ctx context.Context, viewerID *uuid.UUID, limit, offset int) ([]*model.Video, error) {
	var videos []*model.Video
	err := r.db.WithContext(ctx).
		Scopes(r.visibleTo(viewerID)).
		Order("uploaded_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	return videos, err
}

// ListByOwner 列出某用户上传的、对 viewer 可见的视频
func (r *VideoRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, viewerID *uuid.UUID, limit, offset int) ([]*model.Video, error) {
	var videos []*model.Video
	err := r.db.WithContext(ctx).
		Scopes(r.visibleTo(viewerID)).
		Where("owner_id = ?", ownerID).
		Order("uploaded_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	return videos, err
}

// ListViewedBy 按最近观看时间列出用户看过的视频
func (r *VideoRepository) ListViewedBy(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]*model.Video, error) {
	var videos []*model.Video
	err := r.db.WithContext(ctx).
		Select("videos.*").
		Joins("JOIN user_views ON user_views.video_id = videos.id").
		Where("user_views.viewer_id = ?", viewerID).
		Order("user_views.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	return videos, err
}

// visibleTo 粗粒度可见性过滤，逐条的最终判定由业务层的权限解析完成
func (r *VideoRepository) visibleTo(viewerID *uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == nil {
			return db.Where("videos.visibility = ?", model.TierEveryone)
		}
		subscribed := r.db.Model(&model.Subscription{}).
			Select("subscribed_id").
			Where("subscriber_id = ?", *viewerID)
		return db.Where(
			"(videos.visibility IN ? OR videos.owner_id = ? OR (videos.visibility = ? AND videos.owner_id IN (?)))",
			[]model.VisibilityTier{model.TierEveryone, model.TierAuthenticated},
			*viewerID,
			model.TierSubscribers,
			subscribed,
		)
	}
}

var _ VideoStore = (*VideoRepository)(nil)
