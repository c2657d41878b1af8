package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/tubeview/internal/config"
	"github.com/user/tubeview/internal/handler"
	"github.com/user/tubeview/internal/middleware"
	"github.com/user/tubeview/internal/repository"
	"github.com/user/tubeview/internal/router"
	"github.com/user/tubeview/internal/service"
	"github.com/user/tubeview/internal/utils"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL, cfg.Env == "development")
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 观看数缓存：配置了 Redis 时多实例共享，否则进程内缓存
	var counts utils.CountCache = utils.NewMemoryCountCache(30 * time.Second)
	if cfg.RedisAddr != "" {
		rdb, err := utils.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Printf("%v，改用进程内缓存", err)
		} else {
			defer rdb.Close()
			counts = utils.NewRedisCountCache(rdb, "tubeview:", 30*time.Second)
		}
	}

	// 设备指纹校验，仅非生产环境允许未配置 API Key（Validate 已拦截生产环境）
	var fraud *service.FraudChecker
	if cfg.Fingerprint.APIKey != "" {
		fraud = service.NewFraudChecker(service.NewFingerprintClient(cfg.Fingerprint), cfg.View, cfg.Fingerprint.Timeout)
	} else {
		log.Println("[Fraud] 未配置 FINGERPRINT_API_KEY，观看上报不做设备校验")
	}

	// 初始化服务
	catalog := service.NewVideoCatalog(repos.Video, 10000, 10*time.Minute)
	oracle := service.NewSubscriptionOracle(repos.Subscription)
	viewSvc := service.NewViewService(service.ViewServiceDeps{
		Catalog:  catalog,
		Oracle:   oracle,
		Views:    repos.View,
		Pointers: repos.UserView,
		Tx:       repos,
		Fraud:    fraud,
		Counts:   counts,
		Config:   cfg.View,
	})
	h := handler.NewHandler(cfg, handler.Services{
		Users:        service.NewUserService(repos.User, repos.Subscription),
		Videos:       service.NewVideoService(catalog, oracle, repos.Video, repos.Like, viewSvc),
		Views:        viewSvc,
		Interactions: service.NewInteractionService(viewSvc, repos.Like, repos.Comment),
	})

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 中间件
	r.Use(middleware.Logger())
	r.Use(middleware.Security())
	r.Use(middleware.CORS())

	// 启动定时清理任务
	cleanupSvc := service.NewCleanupService(repos.View, cfg.View.AuditRetentionDays)
	cleanupSvc.Start()
	defer cleanupSvc.Stop()

	// 注册路由
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Printf("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("服务器强制关闭: %v", err)
	}

	log.Println("服务器已退出")
}
