package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// 观看记录相关默认值
const (
	DefaultDailyViewLimit       = 5
	DefaultMinCountedSeconds    = 15
	DefaultAuditRetentionDays   = 30
	DefaultFingerprintTimeoutS  = 5
	DefaultFingerprintRegion    = "us"
	defaultSecretKey            = "your-secret-key-change-in-production"
	defaultFraudRecentWindowHrs = 3
)

// Config 应用配置
type Config struct {
	Env         string        `validate:"required,oneof=development production test"`
	AppSecret   string        `validate:"required,min=8"`
	DatabaseURL string        `validate:"required"`
	JWTExpiry   time.Duration `validate:"gt=0"`
	Port        string        `validate:"required,numeric"`
	RedisAddr   string
	Fingerprint FingerprintConfig
	View        ViewConfig
}

// FingerprintConfig 设备指纹访问历史服务配置
type FingerprintConfig struct {
	APIKey  string
	Region  string        `validate:"required,oneof=us eu ap"`
	BaseURL string        `validate:"omitempty,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// ViewConfig 观看计数规则
type ViewConfig struct {
	DailyLimit         int           `validate:"gt=0"`
	QuotaWindow        time.Duration `validate:"gt=0"`
	MinCountedViewing  time.Duration `validate:"gte=0"`
	RecentVisitWindow  time.Duration `validate:"gt=0"`
	MinConfidence      float64       `validate:"gte=0,lte=1"`
	AuditRetentionDays int           `validate:"gt=0"`
}

// Load 加载配置
func Load() *Config {
	expiryHours := getEnvInt("JWT_EXPIRY_HOURS", 72)

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "tubeview")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", defaultSecretKey))

	if getEnv("APP_ENV", "development") == "production" && appSecret == defaultSecretKey {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: getEnv("DATABASE_URL", dbURL),
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		Fingerprint: FingerprintConfig{
			APIKey:  getEnv("FINGERPRINT_API_KEY", ""),
			Region:  getEnv("FINGERPRINT_API_REGION", DefaultFingerprintRegion),
			BaseURL: getEnv("FINGERPRINT_API_URL", ""),
			Timeout: time.Duration(getEnvInt("FINGERPRINT_TIMEOUT_SECONDS", DefaultFingerprintTimeoutS)) * time.Second,
		},
		View: ViewConfig{
			DailyLimit:         getEnvInt("VIEW_DAILY_LIMIT", DefaultDailyViewLimit),
			QuotaWindow:        24 * time.Hour,
			MinCountedViewing:  time.Duration(getEnvInt("VIEW_MIN_COUNTED_SECONDS", DefaultMinCountedSeconds)) * time.Second,
			RecentVisitWindow:  defaultFraudRecentWindowHrs * time.Hour,
			MinConfidence:      0.94,
			AuditRetentionDays: getEnvInt("VIEW_AUDIT_RETENTION_DAYS", DefaultAuditRetentionDays),
		},
	}
}

// Validate 校验配置是否合法
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	// 生产环境必须启用设备指纹校验
	if c.Env == "production" && c.Fingerprint.APIKey == "" {
		return fmt.Errorf("配置校验失败: 生产环境必须设置 FINGERPRINT_API_KEY")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
