package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// View 一次观看记录。ViewingTime 为 nil 表示该次观看不计入总数
type View struct {
	ID           uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	VideoID      uuid.UUID      `json:"video_id" db:"video_id" gorm:"type:uuid;not null;index:idx_view_video_created"`
	ViewerID     *uuid.UUID     `json:"viewer_id" db:"viewer_id" gorm:"type:uuid;index"`
	Fingerprint  *string        `json:"-" db:"fingerprint" gorm:"size:64;index"`
	StopTimecode time.Duration  `json:"stop_timecode" db:"stop_timecode" gorm:"not null"`
	ViewingTime  *time.Duration `json:"viewing_time" db:"viewing_time"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at" gorm:"index:idx_view_video_created"`
}

func (v *View) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Counted 是否计入观看总数
func (v *View) Counted() bool {
	return v.ViewingTime != nil
}

// UserView 每个用户每个视频一行，指向最近一次观看记录，用于续播
type UserView struct {
	ViewerID  uuid.UUID `json:"viewer_id" db:"viewer_id" gorm:"type:uuid;primaryKey"`
	VideoID   uuid.UUID `json:"video_id" db:"video_id" gorm:"type:uuid;primaryKey"`
	ViewID    uuid.UUID `json:"view_id" db:"view_id" gorm:"type:uuid;not null;index"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ViewIdentity 配额计数的身份键：登录用户按用户 ID，匿名访客按设备指纹，两者互不合并
type ViewIdentity struct {
	ViewerID    *uuid.UUID
	Fingerprint string
}

// Anonymous 是否为匿名身份
func (i ViewIdentity) Anonymous() bool {
	return i.ViewerID == nil
}
