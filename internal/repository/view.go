package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"gorm.io/gorm"
)

// ViewRepository 观看记录仓库
type ViewRepository struct {
	db *gorm.DB
}

func NewViewRepository(db *gorm.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// Insert 写入观看记录
func (r *ViewRepository) Insert(ctx context.Context, v *model.View) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(v).Error
}

// Get 根据 ID 获取观看记录
func (r *ViewRepository) Get(ctx context.Context, id uuid.UUID) (*model.View, error) {
	var v model.View
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CountForVideo 统计视频的有效观看数（viewing_time 非空）
func (r *ViewRepository) CountForVideo(ctx context.Context, videoID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.View{}).
		Where("video_id = ? AND viewing_time IS NOT NULL", videoID).
		Count(&count).Error
	return count, err
}

// CountForIdentityInWindow 统计某身份在 since 之后对视频的有效观看数
func (r *ViewRepository) CountForIdentityInWindow(ctx context.Context, identity model.ViewIdentity, videoID uuid.UUID, since time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.View{}).
		Where("video_id = ? AND viewing_time IS NOT NULL AND created_at > ?", videoID, since)
	if identity.Anonymous() {
		q = q.Where("viewer_id IS NULL AND fingerprint = ?", identity.Fingerprint)
	} else {
		q = q.Where("viewer_id = ?", *identity.ViewerID)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}

// DeleteUncountedBefore 清理指定时间之前、未计数且没有续播指针引用的观看记录
func (r *ViewRepository) DeleteUncountedBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("viewing_time IS NULL AND created_at < ?", before).
		Where("id NOT IN (?)", r.db.Model(&model.UserView{}).Select("view_id")).
		Delete(&model.View{})
	return result.RowsAffected, result.Error
}

// DeleteByVideo 删除视频的全部观看记录（视频删除时使用）
func (r *ViewRepository) DeleteByVideo(ctx context.Context, videoID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&model.View{}).Error
}

var _ ViewStore = (*ViewRepository)(nil)
