package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// 测试关系状态只从两条有向边推导
func TestGraphStatusDerivation(t *testing.T) {
	g := NewGraph()
	alice := uuid.New()
	bob := uuid.New()

	assert.Equal(t, StatusNone, g.StatusOf(alice, bob))

	g.ApplyFollow(alice, bob)
	assert.Equal(t, StatusFollowing, g.StatusOf(alice, bob))
	assert.Equal(t, StatusFollower, g.StatusOf(bob, alice))

	g.ApplyFollow(bob, alice)
	assert.Equal(t, StatusFriends, g.StatusOf(alice, bob))
	assert.Equal(t, StatusFriends, g.StatusOf(bob, alice))

	g.ApplyUnfollow(alice, bob)
	assert.Equal(t, StatusFollower, g.StatusOf(alice, bob))
	assert.Equal(t, StatusFollowing, g.StatusOf(bob, alice))
}

// 测试边操作幂等：重复插入/删除不改变结果
func TestGraphIdempotentEdgeOps(t *testing.T) {
	g := NewGraph()
	a := uuid.New()
	b := uuid.New()

	g.ApplyFollow(a, b)
	g.ApplyFollow(a, b)
	assert.True(t, g.EdgeExists(a, b))
	assert.Equal(t, StatusFollowing, g.StatusOf(a, b))

	g.ApplyUnfollow(a, b)
	g.ApplyUnfollow(a, b)
	assert.False(t, g.EdgeExists(a, b))
	assert.Equal(t, StatusNone, g.StatusOf(a, b))
}

// 测试 SetEdge 按权威值覆盖
func TestGraphSetEdge(t *testing.T) {
	g := NewGraph()
	a := uuid.New()
	b := uuid.New()

	g.SetEdge(a, b, true)
	assert.True(t, g.EdgeExists(a, b))

	g.SetEdge(a, b, false)
	assert.False(t, g.EdgeExists(a, b))
}

// 测试方向性：a->b 的边不影响 b->a
func TestGraphDirectionality(t *testing.T) {
	g := NewGraph()
	a := uuid.New()
	b := uuid.New()

	g.ApplyFollow(a, b)
	assert.True(t, g.EdgeExists(a, b))
	assert.False(t, g.EdgeExists(b, a))
}

// 测试投票集合的翻转与覆盖
func TestVoteSet(t *testing.T) {
	v := NewVoteSet()
	id := uuid.New()

	assert.False(t, v.Has(id))

	assert.True(t, v.Toggle(id))
	assert.True(t, v.Has(id))

	assert.False(t, v.Toggle(id))
	assert.False(t, v.Has(id))

	v.Set(id, true)
	assert.True(t, v.Has(id))

	v.Clear()
	assert.False(t, v.Has(id))
}
