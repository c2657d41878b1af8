package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LikeStatus 评价类型
type LikeStatus string

const (
	LikeStatusLike    LikeStatus = "like"
	LikeStatusDislike LikeStatus = "dislike"
)

// Like 用户对视频的评价
type Like struct {
	UserID    uuid.UUID  `json:"user_id" db:"user_id" gorm:"type:uuid;primaryKey"`
	VideoID   uuid.UUID  `json:"video_id" db:"video_id" gorm:"type:uuid;primaryKey;index"`
	Status    LikeStatus `json:"status" db:"status" gorm:"size:10;not null"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Comment 评论
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	VideoID   uuid.UUID `json:"video_id" db:"video_id" gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id" gorm:"type:uuid;not null"`
	Text      string    `json:"text" db:"text" gorm:"size:2000;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"index"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
