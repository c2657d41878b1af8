package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" db:"email" gorm:"unique;not null"`
	Username     string    `json:"username" db:"username" gorm:"unique;not null"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Subscription 订阅关系（subscriber 订阅了 subscribed）
type Subscription struct {
	SubscriberID uuid.UUID `json:"subscriber_id" db:"subscriber_id" gorm:"type:uuid;primaryKey"`
	SubscribedID uuid.UUID `json:"subscribed_id" db:"subscribed_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
