package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/repository"
	"github.com/user/tubeview/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// VideoCatalog 视频元数据读取入口。时长和可见范围创建后不变，因此可以放心缓存
type VideoCatalog struct {
	store repository.VideoStore
	cache *utils.TTLCache[*model.Video]
	group singleflight.Group
}

// NewVideoCatalog 创建视频目录
func NewVideoCatalog(store repository.VideoStore, size int, ttl time.Duration) *VideoCatalog {
	return &VideoCatalog{
		store: store,
		cache: utils.NewTTLCache[*model.Video](size, ttl),
	}
}

// Get 视频不存在时返回 ErrNonExistentVideo；并发请求同一视频只查一次库
func (c *VideoCatalog) Get(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	key := id.String()
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	// 共享查询不受首个调用方取消的影响
	sharedCtx := context.WithoutCancel(ctx)
	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := c.store.Get(sharedCtx, id)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrNonExistentVideo
		}
		c.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.Video), nil
}

// Forget 视频删除后调用
func (c *VideoCatalog) Forget(id uuid.UUID) {
	c.cache.Delete(id.String())
}

// SubscriptionOracle 回答"viewer 是否订阅了 owner"
type SubscriptionOracle struct {
	store repository.SubscriptionStore
}

func NewSubscriptionOracle(store repository.SubscriptionStore) *SubscriptionOracle {
	return &SubscriptionOracle{store: store}
}

// ViewerFor 返回带有针对 ownerID 订阅标记的 viewer。匿名或本人无需查询
func (o *SubscriptionOracle) ViewerFor(ctx context.Context, viewer Viewer, ownerID uuid.UUID) (Viewer, error) {
	if !viewer.Identified() || viewer.UserID == ownerID {
		return viewer, nil
	}
	ok, err := o.store.IsSubscribed(ctx, viewer.UserID, ownerID)
	if err != nil {
		return viewer, fmt.Errorf("查询订阅关系失败: %w", err)
	}
	return viewer.WithSubscription(ownerID, ok), nil
}

// Flags 并发查询 viewer 对多个作者的订阅状态
func (o *SubscriptionOracle) Flags(ctx context.Context, viewer Viewer, owners []uuid.UUID) (map[uuid.UUID]bool, error) {
	flags := make(map[uuid.UUID]bool, len(owners))
	if !viewer.Identified() {
		return flags, nil
	}

	results := make([]bool, len(owners))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, owner := range owners {
		if owner == viewer.UserID {
			continue
		}
		g.Go(func() error {
			ok, err := o.store.IsSubscribed(gctx, viewer.UserID, owner)
			if err != nil {
				return err
			}
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("查询订阅关系失败: %w", err)
	}
	for i, owner := range owners {
		flags[owner] = results[i]
	}
	return flags, nil
}
