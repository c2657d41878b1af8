package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
)

// 以下接口是业务层依赖的存储抽象，gorm 实现与内存实现（memstore）都需满足。
// 所有 Get/Find 方法在记录不存在时返回 (nil, nil)。

type VideoStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Video, error)
	Create(ctx context.Context, v *model.Video) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListLatest(ctx context.Context, viewerID *uuid.UUID, limit, offset int) ([]*model.Video, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, viewerID *uuid.UUID, limit, offset int) ([]*model.Video, error)
	ListViewedBy(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]*model.Video, error)
}

type SubscriptionStore interface {
	IsSubscribed(ctx context.Context, viewerID, ownerID uuid.UUID) (bool, error)
	Add(ctx context.Context, subscriberID, subscribedID uuid.UUID) error
	Remove(ctx context.Context, subscriberID, subscribedID uuid.UUID) (bool, error)
	ListSubscribed(ctx context.Context, subscriberID uuid.UUID) ([]*model.User, error)
	ListSubscribers(ctx context.Context, subscribedID uuid.UUID) ([]*model.User, error)
}

type ViewStore interface {
	Insert(ctx context.Context, v *model.View) error
	Get(ctx context.Context, id uuid.UUID) (*model.View, error)
	CountForVideo(ctx context.Context, videoID uuid.UUID) (int64, error)
	CountForIdentityInWindow(ctx context.Context, identity model.ViewIdentity, videoID uuid.UUID, since time.Time) (int64, error)
	DeleteUncountedBefore(ctx context.Context, before time.Time) (int64, error)
}

type WatchPointerStore interface {
	Get(ctx context.Context, viewerID, videoID uuid.UUID) (*model.UserView, error)
	Upsert(ctx context.Context, p *model.UserView) error
	Delete(ctx context.Context, viewerID, videoID uuid.UUID) (bool, error)
}

// ViewTxRunner 在同一事务中执行观看记录写入与续播指针更新
type ViewTxRunner interface {
	WithinViewTx(ctx context.Context, fn func(views ViewStore, pointers WatchPointerStore) error) error
}

type LikeStore interface {
	Get(ctx context.Context, userID, videoID uuid.UUID) (*model.Like, error)
	Upsert(ctx context.Context, l *model.Like) error
	Remove(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
	Count(ctx context.Context, videoID uuid.UUID, status model.LikeStatus) (int64, error)
}

type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByVideo(ctx context.Context, videoID uuid.UUID, limit, offset int) ([]*model.Comment, error)
}

type UserStore interface {
	Create(ctx context.Context, email, username, password string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	CheckPassword(user *model.User, password string) bool
}
