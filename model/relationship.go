package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFollow 关注关系表（有向边 follower -> following）
type UserFollow struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FollowerID  uuid.UUID `json:"follower_id" gorm:"type:uuid;not null;index:idx_follow_pair,unique"`
	FollowingID uuid.UUID `json:"following_id" gorm:"type:uuid;not null;index:idx_follow_pair,unique"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (UserFollow) TableName() string {
	return "user_follows"
}

func (f *UserFollow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
