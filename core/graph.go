package core

import (
	"sync"

	"github.com/google/uuid"
)

// RelationshipStatus 两个用户之间的对称关系状态（永远从边推导，不单独缓存）
type RelationshipStatus string

const (
	StatusNone      RelationshipStatus = "none"
	StatusFollowing RelationshipStatus = "following"
	StatusFollower  RelationshipStatus = "follower"
	StatusFriends   RelationshipStatus = "friends"
)

type edgeKey struct {
	from uuid.UUID
	to   uuid.UUID
}

// Graph 内存中的关注关系图（有向边集合）
//
// 本层不发网络请求、不会失败；只有 OptimisticMutator 允许在服务端
// 确认之前改写它。
type Graph struct {
	mu    sync.RWMutex
	edges map[edgeKey]struct{}
}

func NewGraph() *Graph {
	return &Graph{edges: make(map[edgeKey]struct{})}
}

// EdgeExists 有向边 from -> to 是否存在
func (g *Graph) EdgeExists(from, to uuid.UUID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[edgeKey{from, to}]
	return ok
}

// ApplyFollow 插入一条边（幂等：重复插入是 no-op）
func (g *Graph) ApplyFollow(from, to uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[edgeKey{from, to}] = struct{}{}
}

// ApplyUnfollow 删除一条边（幂等：删除不存在的边是 no-op）
func (g *Graph) ApplyUnfollow(from, to uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, edgeKey{from, to})
}

// SetEdge 按服务端权威值覆盖边的存在性
func (g *Graph) SetEdge(from, to uuid.UUID, exists bool) {
	if exists {
		g.ApplyFollow(from, to)
	} else {
		g.ApplyUnfollow(from, to)
	}
}

// StatusOf 从两条有向边的存在性推导关系状态
func (g *Graph) StatusOf(self, other uuid.UUID) RelationshipStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, following := g.edges[edgeKey{self, other}]
	_, follower := g.edges[edgeKey{other, self}]

	switch {
	case following && follower:
		return StatusFriends
	case following:
		return StatusFollowing
	case follower:
		return StatusFollower
	default:
		return StatusNone
	}
}

// VoteSet 当前用户投过票的投稿集合（和关注边同一套维护方式）
type VoteSet struct {
	mu    sync.RWMutex
	voted map[uuid.UUID]struct{}
}

func NewVoteSet() *VoteSet {
	return &VoteSet{voted: make(map[uuid.UUID]struct{})}
}

// Has 是否已对该投稿投票
func (v *VoteSet) Has(submissionID uuid.UUID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.voted[submissionID]
	return ok
}

// Set 按权威值覆盖投票成员关系
func (v *VoteSet) Set(submissionID uuid.UUID, voted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if voted {
		v.voted[submissionID] = struct{}{}
	} else {
		delete(v.voted, submissionID)
	}
}

// Toggle 翻转投票成员关系，返回翻转后的值
func (v *VoteSet) Toggle(submissionID uuid.UUID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.voted[submissionID]; ok {
		delete(v.voted, submissionID)
		return false
	}
	v.voted[submissionID] = struct{}{}
	return true
}

// Clear 清空（换期时调用）
func (v *VoteSet) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.voted = make(map[uuid.UUID]struct{})
}
