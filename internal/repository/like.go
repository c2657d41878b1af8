package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository 视频评价仓库
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Get 获取用户对视频的评价
func (r *LikeRepository) Get(ctx context.Context, userID, videoID uuid.UUID) (*model.Like, error) {
	var like model.Like
	err := r.db.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Upsert 点赞或点踩，已有评价则覆盖
func (r *LikeRepository) Upsert(ctx context.Context, l *model.Like) error {
	l.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(l).Error
}

// Remove 取消评价
func (r *LikeRepository) Remove(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&model.Like{})
	return result.RowsAffected > 0, result.Error
}

// Count 统计视频的点赞或点踩数
func (r *LikeRepository) Count(ctx context.Context, videoID uuid.UUID, status model.LikeStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("video_id = ? AND status = ?", videoID, status).
		Count(&count).Error
	return count, err
}

var _ LikeStore = (*LikeRepository)(nil)
