package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"actify_engage/utils"
)

// User 用户表（身份由认证服务维护，这里只读）
type User struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username    string    `json:"username" gorm:"type:varchar(50);not null;uniqueIndex"`
	FullName    string    `json:"full_name" gorm:"type:varchar(100)"`
	AvatarColor string    `json:"avatar_color" gorm:"type:varchar(10)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate 生成主键并按用户名首字符补全头像颜色
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.AvatarColor == "" {
		u.AvatarColor = utils.AvatarColor(u.Username)
	}
	return nil
}

// UserSummary 用户摘要（搜索/列表返回，附带关系状态）
type UserSummary struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	FullName           string    `json:"full_name"`
	AvatarColor        string    `json:"avatar_color"`
	IsFollowing        bool      `json:"is_following"`
	IsFollower         bool      `json:"is_follower"`
	IsMutual           bool      `json:"is_mutual"`
	RelationshipStatus string    `json:"relationship_status"` // 'none' | 'following' | 'follower' | 'friends'
}
