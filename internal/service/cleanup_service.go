package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/user/tubeview/internal/repository"
)

// CleanupService 清理服务
type CleanupService struct {
	views     repository.ViewStore
	retention time.Duration
	interval  time.Duration

	stop chan struct{}
	once sync.Once
}

// NewCleanupService 创建清理服务，retentionDays 之前的未计数观看记录会被删除
func NewCleanupService(views repository.ViewStore, retentionDays int) *CleanupService {
	return &CleanupService{
		views:     views,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  24 * time.Hour,
		stop:      make(chan struct{}),
	}
}

// Start 启动定时清理任务
func (s *CleanupService) Start() {
	ticker := time.NewTicker(s.interval)

	// 启动时先运行一次
	go s.RunOnce(context.Background())

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止定时任务
func (s *CleanupService) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// RunOnce 执行一次清理，返回删除条数
func (s *CleanupService) RunOnce(ctx context.Context) int64 {
	log.Println("[CleanupService] 开始清理过期观看记录...")

	// 计数观看与续播指针引用的记录都保留
	affected, err := s.views.DeleteUncountedBefore(ctx, time.Now().Add(-s.retention))
	if err != nil {
		log.Printf("[CleanupService] 清理观看记录失败: %v", err)
		return 0
	}
	log.Printf("[CleanupService] 已清理 %d 条未计数观看记录", affected)
	return affected
}
