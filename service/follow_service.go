package service

import (
	"errors"
	"fmt"
	"strings"

	"actify_engage/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Follow 建立关注边（幂等：重复关注不报错），返回权威的边存在性
func (s *FollowService) Follow(followerID, followingID uuid.UUID) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}

	var count int64
	err := s.db.Model(&model.UserFollow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check follow edge: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	edge := &model.UserFollow{
		FollowerID:  followerID,
		FollowingID: followingID,
	}
	if err := s.db.Create(edge).Error; err != nil {
		return false, fmt.Errorf("failed to create follow edge: %w", err)
	}
	return true, nil
}

// Unfollow 删除关注边（幂等：边不存在也不报错），返回权威的边存在性
func (s *FollowService) Unfollow(followerID, followingID uuid.UUID) (bool, error) {
	err := s.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.UserFollow{}).Error
	if err != nil {
		return false, fmt.Errorf("failed to delete follow edge: %w", err)
	}
	return false, nil
}

// EdgeExists 有向边 follower -> following 是否存在
func (s *FollowService) EdgeExists(followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&model.UserFollow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check follow edge: %w", err)
	}
	return count > 0, nil
}

// Relation 一对用户双向边的权威快照
func (s *FollowService) Relation(selfID, otherID uuid.UUID) (selfFollowsOther, otherFollowsSelf bool, err error) {
	var edges []model.UserFollow
	err = s.db.Where(
		"(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
		selfID, otherID, otherID, selfID,
	).Find(&edges).Error
	if err != nil {
		return false, false, fmt.Errorf("failed to query relation: %w", err)
	}
	for _, e := range edges {
		if e.FollowerID == selfID {
			selfFollowsOther = true
		} else {
			otherFollowsSelf = true
		}
	}
	return selfFollowsOther, otherFollowsSelf, nil
}

// GetFollowers 关注我的人（附带相对我的关系状态）
func (s *FollowService) GetFollowers(userID uuid.UUID) ([]model.UserSummary, error) {
	var users []model.User
	err := s.db.Joins("JOIN user_follows uf ON uf.follower_id = users.id").
		Where("uf.following_id = ?", userID).
		Order("uf.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query followers: %w", err)
	}
	return s.withRelationship(userID, users)
}

// GetFollowing 我关注的人（附带相对我的关系状态）
func (s *FollowService) GetFollowing(userID uuid.UUID) ([]model.UserSummary, error) {
	var users []model.User
	err := s.db.Joins("JOIN user_follows uf ON uf.following_id = users.id").
		Where("uf.follower_id = ?", userID).
		Order("uf.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query following: %w", err)
	}
	return s.withRelationship(userID, users)
}

// FriendIDs 互相关注的用户 id 集合（好友 = 双向边都存在）
func (s *FollowService) FriendIDs(userID uuid.UUID) (map[uuid.UUID]bool, error) {
	followingSet, followerSet, err := s.edgeSets(userID)
	if err != nil {
		return nil, err
	}
	friends := make(map[uuid.UUID]bool)
	for id := range followingSet {
		if followerSet[id] {
			friends[id] = true
		}
	}
	return friends, nil
}

// SearchUsers 按用户名/昵称搜索（至少 2 个字符），排除自己，
// 每条结果的关系状态都从边的存在性现场推导
func (s *FollowService) SearchUsers(selfID uuid.UUID, query string) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return []model.UserSummary{}, nil
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []model.User
	err := s.db.Where("id <> ? AND (LOWER(username) LIKE ? OR LOWER(full_name) LIKE ?)",
		selfID, pattern, pattern).
		Order("username ASC").
		Limit(50).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return s.withRelationship(selfID, users)
}

// edgeSets 自己两个方向的边集合（一次各查一批，避免 N+1）
func (s *FollowService) edgeSets(selfID uuid.UUID) (followingSet, followerSet map[uuid.UUID]bool, err error) {
	var edges []model.UserFollow
	err = s.db.Where("follower_id = ? OR following_id = ?", selfID, selfID).Find(&edges).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query edges: %w", err)
	}

	followingSet = make(map[uuid.UUID]bool)
	followerSet = make(map[uuid.UUID]bool)
	for _, e := range edges {
		if e.FollowerID == selfID {
			followingSet[e.FollowingID] = true
		}
		if e.FollowingID == selfID {
			followerSet[e.FollowerID] = true
		}
	}
	return followingSet, followerSet, nil
}

// withRelationship 给用户列表补充相对 selfID 推导的关系状态
func (s *FollowService) withRelationship(selfID uuid.UUID, users []model.User) ([]model.UserSummary, error) {
	followingSet, followerSet, err := s.edgeSets(selfID)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		isFollowing := followingSet[u.ID]
		isFollower := followerSet[u.ID]
		summaries = append(summaries, model.UserSummary{
			ID:                 u.ID,
			Username:           u.Username,
			FullName:           u.FullName,
			AvatarColor:        u.AvatarColor,
			IsFollowing:        isFollowing,
			IsFollower:         isFollower,
			IsMutual:           isFollowing && isFollower,
			RelationshipStatus: relationshipStatus(isFollowing, isFollower),
		})
	}
	return summaries, nil
}

// relationshipStatus 从两条边的存在性推导状态（唯一的真相来源）
func relationshipStatus(isFollowing, isFollower bool) string {
	switch {
	case isFollowing && isFollower:
		return "friends"
	case isFollowing:
		return "following"
	case isFollower:
		return "follower"
	default:
		return "none"
	}
}
