package core

import (
	"context"

	"github.com/google/uuid"
)

// VoteResult 服务端返回的权威投票结果
type VoteResult struct {
	VoteCount      int  `json:"vote_count"`
	ViewerHasVoted bool `json:"viewer_has_voted"`
}

// RelationSnapshot 服务端对一对用户关注边的权威快照
type RelationSnapshot struct {
	SelfFollowsOther bool `json:"self_follows_other"`
	OtherFollowsSelf bool `json:"other_follows_self"`
}

// Remote 远端服务黑盒：核心只通过这些操作读写服务端。
//
// 约定：业务层面的拒绝（自投、重复投稿等）必须返回
// *MutationRejectedError；其余错误一律视为网络/服务端故障。
type Remote interface {
	// CurrentCycle 获取当期挑战；没有当期挑战时返回 (nil, nil)
	CurrentCycle(ctx context.Context) (*Cycle, error)

	// HasSubmitted 用户在该期是否已投稿
	HasSubmitted(ctx context.Context, userID, cycleID uuid.UUID) (bool, error)

	// SubmitActivity 提交当期活动；成功即解锁，失败保持锁定
	SubmitActivity(ctx context.Context, userID, cycleID uuid.UUID, description, photoURL string) error

	// ListSubmissions 拉取已解锁周期的投稿集合（无序）
	ListSubmissions(ctx context.Context, viewerID, cycleID uuid.UUID) ([]FeedItem, error)

	// ToggleVote 切换投票，返回权威票数与本人投票标记
	ToggleVote(ctx context.Context, userID, submissionID uuid.UUID) (*VoteResult, error)

	// PostComment 发表评论，返回权威评论数
	PostComment(ctx context.Context, userID, submissionID uuid.UUID, comment string) (int, error)

	// CheckRelation 获取一对用户关注边的权威快照
	CheckRelation(ctx context.Context, selfID, otherID uuid.UUID) (*RelationSnapshot, error)

	// SetFollow 建立/删除关注边，返回权威的边存在性
	SetFollow(ctx context.Context, followerID, followingID uuid.UUID, follow bool) (bool, error)
}
