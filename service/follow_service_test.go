package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试关注/取关的幂等性与权威返回值
func TestFollowIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	following, err := svc.Follow(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// 重复关注不报错，结果一致
	following, err = svc.Follow(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	exists, err := svc.EdgeExists(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	following, err = svc.Unfollow(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// 取关不存在的边也不报错
	following, err = svc.Unfollow(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

// 测试自关注被拒绝
func TestFollowSelfRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)
	alice := createTestUser(t, db, "alice")

	_, err := svc.Follow(alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

// 测试双向边快照
func TestRelationSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	selfFollows, otherFollows, err := svc.Relation(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, selfFollows)
	assert.False(t, otherFollows)

	_, err = svc.Follow(alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.Follow(bob.ID, alice.ID)
	require.NoError(t, err)

	selfFollows, otherFollows, err = svc.Relation(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, selfFollows)
	assert.True(t, otherFollows)
}

// 测试好友集合 = 双向边都存在
func TestFriendIDs(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	// alice <-> bob 互关，alice -> carol 单向
	_, err := svc.Follow(alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.Follow(bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.Follow(alice.ID, carol.ID)
	require.NoError(t, err)

	friends, err := svc.FriendIDs(alice.ID)
	require.NoError(t, err)
	assert.True(t, friends[bob.ID])
	assert.False(t, friends[carol.ID])
}

// 测试关注列表附带的关系状态推导
func TestFollowersWithRelationshipStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	// bob 和 carol 都关注 alice；alice 只回关 bob
	_, err := svc.Follow(bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.Follow(carol.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.Follow(alice.ID, bob.ID)
	require.NoError(t, err)

	followers, err := svc.GetFollowers(alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)

	byName := map[string]string{}
	for _, f := range followers {
		byName[f.Username] = f.RelationshipStatus
	}
	assert.Equal(t, "friends", byName["bob"])
	assert.Equal(t, "follower", byName["carol"])
}

// 测试用户搜索：短查询返回空，结果排除自己并附带关系状态
func TestSearchUsers(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)
	alice := createTestUser(t, db, "alice")
	createTestUser(t, db, "alina")
	createTestUser(t, db, "bob")

	results, err := svc.SearchUsers(alice.ID, "a")
	require.NoError(t, err)
	assert.Empty(t, results, "少于 2 个字符不触发搜索")

	results, err = svc.SearchUsers(alice.ID, "ali")
	require.NoError(t, err)
	require.Len(t, results, 1, "结果排除自己")
	assert.Equal(t, "alina", results[0].Username)
	assert.Equal(t, "none", results[0].RelationshipStatus)
}
