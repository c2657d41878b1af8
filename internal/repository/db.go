package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/user/tubeview/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// Migrate 自动迁移表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Subscription{},
		&model.Video{},
		&model.View{},
		&model.UserView{},
		&model.Like{},
		&model.Comment{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	DB           *gorm.DB
	User         *UserRepository
	Video        *VideoRepository
	Subscription *SubscriptionRepository
	View         *ViewRepository
	UserView     *UserViewRepository
	Like         *LikeRepository
	Comment      *CommentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:           db,
		User:         NewUserRepository(db),
		Video:        NewVideoRepository(db),
		Subscription: NewSubscriptionRepository(db),
		View:         NewViewRepository(db),
		UserView:     NewUserViewRepository(db),
		Like:         NewLikeRepository(db),
		Comment:      NewCommentRepository(db),
	}
}

// WithinViewTx 在事务内执行观看记录与续播指针的写入，任一失败整体回滚
func (r *Repositories) WithinViewTx(ctx context.Context, fn func(views ViewStore, pointers WatchPointerStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewViewRepository(tx), NewUserViewRepository(tx))
	})
}

var _ ViewTxRunner = (*Repositories)(nil)
