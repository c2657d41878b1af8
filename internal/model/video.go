package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisibilityTier 视频可见范围，上传时声明，之后不可修改
type VisibilityTier string

const (
	TierEveryone      VisibilityTier = "everyone"
	TierAuthenticated VisibilityTier = "authenticated"
	TierSubscribers   VisibilityTier = "subscribers"
	TierOwnerOnly     VisibilityTier = "owner_only"
)

// Valid 判断是否为已知的可见范围
func (t VisibilityTier) Valid() bool {
	switch t {
	case TierEveryone, TierAuthenticated, TierSubscribers, TierOwnerOnly:
		return true
	}
	return false
}

// Video 视频元数据
type Video struct {
	ID          uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID      `json:"owner_id" db:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" db:"title" gorm:"size:100;not null"`
	Description string         `json:"description" db:"description" gorm:"size:5000"`
	Duration    time.Duration  `json:"duration" db:"duration" gorm:"not null"`
	Visibility  VisibilityTier `json:"visibility" db:"visibility" gorm:"size:20;not null;index"`
	UploadedAt  time.Time      `json:"uploaded_at" db:"uploaded_at" gorm:"index"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.UploadedAt.IsZero() {
		v.UploadedAt = time.Now()
	}
	return nil
}
