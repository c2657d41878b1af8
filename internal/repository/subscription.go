package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository 订阅关系仓库
type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// IsSubscribed 检查 viewer 是否订阅了 owner
func (r *SubscriptionRepository) IsSubscribed(ctx context.Context, viewerID, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("subscriber_id = ? AND subscribed_id = ?", viewerID, ownerID).
		Count(&count).Error
	return count > 0, err
}

// Add 订阅，重复订阅忽略
func (r *SubscriptionRepository) Add(ctx context.Context, subscriberID, subscribedID uuid.UUID) error {
	sub := &model.Subscription{
		SubscriberID: subscriberID,
		SubscribedID: subscribedID,
		CreatedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(sub).Error
}

// Remove 取消订阅
func (r *SubscriptionRepository) Remove(ctx context.Context, subscriberID, subscribedID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND subscribed_id = ?", subscriberID, subscribedID).
		Delete(&model.Subscription{})
	return result.RowsAffected > 0, result.Error
}

// ListSubscribed 列出用户订阅的作者
func (r *SubscriptionRepository) ListSubscribed(ctx context.Context, subscriberID uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN subscriptions ON subscriptions.subscribed_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Order("subscriptions.created_at DESC").
		Find(&users).Error
	return users, err
}

// ListSubscribers 列出用户的订阅者
func (r *SubscriptionRepository) ListSubscribers(ctx context.Context, subscribedID uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN subscriptions ON subscriptions.subscriber_id = users.id").
		Where("subscriptions.subscribed_id = ?", subscribedID).
		Order("subscriptions.created_at DESC").
		Find(&users).Error
	return users, err
}

var _ SubscriptionStore = (*SubscriptionRepository)(nil)
