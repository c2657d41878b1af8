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

// UserViewRepository 续播指针仓库
type UserViewRepository struct {
	db *gorm.DB
}

func NewUserViewRepository(db *gorm.DB) *UserViewRepository {
	return &UserViewRepository{db: db}
}

// Get 获取用户在某视频上的续播指针
func (r *UserViewRepository) Get(ctx context.Context, viewerID, videoID uuid.UUID) (*model.UserView, error) {
	var p model.UserView
	err := r.db.WithContext(ctx).
		Where("viewer_id = ? AND video_id = ?", viewerID, videoID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert 插入或更新续播指针，单条语句完成，并发下后写者生效
func (r *UserViewRepository) Upsert(ctx context.Context, p *model.UserView) error {
	p.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "viewer_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"view_id", "updated_at"}),
	}).Create(p).Error
}

// Delete 删除续播指针，不影响观看记录本身。返回是否确实删除了一行
func (r *UserViewRepository) Delete(ctx context.Context, viewerID, videoID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("viewer_id = ? AND video_id = ?", viewerID, videoID).
		Delete(&model.UserView{})
	return result.RowsAffected > 0, result.Error
}

// DeleteByVideo 删除某视频的全部续播指针（视频删除时使用）
func (r *UserViewRepository) DeleteByVideo(ctx context.Context, videoID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&model.UserView{}).Error
}

var _ WatchPointerStore = (*UserViewRepository)(nil)
