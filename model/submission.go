package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GlobalSubmission 挑战投稿表
type GlobalSubmission struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ChallengeID  uuid.UUID `json:"challenge_id" gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Description  string    `json:"description" gorm:"type:text"`
	PhotoURL     string    `json:"photo_url" gorm:"type:varchar(500)"` // 照片存储是外部协作者的事，这里只存引用
	VoteCount    int       `json:"vote_count" gorm:"default:0"`
	CommentCount int       `json:"comment_count" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	// 作者信息与观看者投票标记（查询时补充，不存数据库）
	User           *UserSummary `json:"user,omitempty" gorm:"-"`
	ViewerHasVoted bool         `json:"viewer_has_voted" gorm:"-"`
}

func (GlobalSubmission) TableName() string {
	return "global_submissions"
}

func (s *GlobalSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SubmissionVote 投票表（每人每投稿最多一票，再投一次取消）
type SubmissionVote struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SubmissionID uuid.UUID `json:"submission_id" gorm:"type:uuid;not null;index:idx_vote_submission_user,unique"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_vote_submission_user,unique"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (SubmissionVote) TableName() string {
	return "submission_votes"
}

func (v *SubmissionVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// SubmissionComment 评论表
type SubmissionComment struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SubmissionID uuid.UUID `json:"submission_id" gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Comment      string    `json:"comment" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`

	// 评论者信息（查询时补充，不存数据库）
	User *UserSummary `json:"user,omitempty" gorm:"-"`
}

func (SubmissionComment) TableName() string {
	return "submission_comments"
}

func (c *SubmissionComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
