package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GlobalChallenge 全局挑战表（每期一个题目，限时公开窗口）
type GlobalChallenge struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Prompt        string    `json:"prompt" gorm:"type:varchar(500);not null"`
	StartedAt     time.Time `json:"started_at" gorm:"not null;index"`
	WindowSeconds int       `json:"window_seconds" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (GlobalChallenge) TableName() string {
	return "global_challenges"
}

func (c *GlobalChallenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// EndsAt 本期挑战的公开窗口截止时间
func (c *GlobalChallenge) EndsAt() time.Time {
	return c.StartedAt.Add(time.Duration(c.WindowSeconds) * time.Second)
}

// IsActive 当前时刻是否仍在公开窗口内
func (c *GlobalChallenge) IsActive(now time.Time) bool {
	return !now.Before(c.StartedAt) && now.Before(c.EndsAt())
}
