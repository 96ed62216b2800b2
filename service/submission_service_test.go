package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试保密规则：未投稿的用户只拿到 locked 状态，投稿数据不出库
func TestGlobalFeedLockedForNonParticipant(t *testing.T) {
	db := newTestDB(t)
	challengeSvc := NewChallengeService(db, nil, 24, 60)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	challenge := createTestChallenge(t, db, challengeSvc)

	createTestSubmission(t, challengeSvc, bob.ID, challenge.ID)

	feed, err := svc.GetGlobalFeed(alice.ID, challenge.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "locked", feed.Status)
	assert.False(t, feed.UserHasSubmitted)
	assert.Equal(t, int64(1), feed.TotalParticipants)
	assert.Empty(t, feed.Submissions, "locked 时绝不带投稿数据")
}

// 测试投稿后解锁：能看到所有投稿并附带作者摘要
func TestGlobalFeedUnlockedAfterSubmission(t *testing.T) {
	db := newTestDB(t)
	challengeSvc := NewChallengeService(db, nil, 24, 60)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	challenge := createTestChallenge(t, db, challengeSvc)

	createTestSubmission(t, challengeSvc, bob.ID, challenge.ID)
	createTestSubmission(t, challengeSvc, alice.ID, challenge.ID)

	feed, err := svc.GetGlobalFeed(alice.ID, challenge.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "unlocked", feed.Status)
	assert.True(t, feed.UserHasSubmitted)
	require.Len(t, feed.Submissions, 2)
	for _, sub := range feed.Submissions {
		require.NotNil(t, sub.User)
		assert.NotEmpty(t, sub.User.Username)
	}
}

// 测试好友过滤：只保留互关好友和自己的投稿
func TestGlobalFeedFriendsOnly(t *testing.T) {
	db := newTestDB(t)
	challengeSvc := NewChallengeService(db, nil, 24, 60)
	followSvc := NewFollowService(db)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	challenge := createTestChallenge(t, db, challengeSvc)

	// alice <-> bob 互关；carol 无关系
	_, err := followSvc.Follow(alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = followSvc.Follow(bob.ID, alice.ID)
	require.NoError(t, err)

	createTestSubmission(t, challengeSvc, alice.ID, challenge.ID)
	createTestSubmission(t, challengeSvc, bob.ID, challenge.ID)
	createTestSubmission(t, challengeSvc, carol.ID, challenge.ID)

	feed, err := svc.GetGlobalFeed(alice.ID, challenge.ID, true)
	require.NoError(t, err)
	require.Len(t, feed.Submissions, 2)
	for _, sub := range feed.Submissions {
		assert.NotEqual(t, carol.ID, sub.UserID)
	}
}

// 测试投票切换：投一次 +1，再投一次取消，返回权威票数
func TestToggleVote(t *testing.T) {
	db := newTestDB(t)
	challengeSvc := NewChallengeService(db, nil, 24, 60)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	challenge := createTestChallenge(t, db, challengeSvc)
	submission := createTestSubmission(t, challengeSvc, bob.ID, challenge.ID)

	result, err := svc.ToggleVote(alice.ID, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.VoteCount)
	assert.True(t, result.ViewerHasVoted)

	result, err = svc.ToggleVote(alice.ID, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.VoteCount)
	assert.False(t, result.ViewerHasVoted)
}

// 测试自投被拒绝且票数不变
func TestToggleVoteSelfRejected(t *testing.T) {
	db := newTestDB(t)
	challengeSvc := NewChallengeService(db, nil, 24, 60)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")
	challenge := createTestChallenge(t, db, challengeSvc)
	submission := createTestSubmission(t, challengeSvc, alice.ID, challenge.ID)

	_, err := svc.ToggleVote(alice.ID, submission.ID)
	assert.ErrorIs(t, err, ErrSelfVote)

	result, err := svc.ToggleVote(createTestUser(t, db, "bob").ID, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.VoteCount)
}

// 测试对不存在的投稿投票
func TestToggleVoteNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")

	_, err := svc.ToggleVote(alice.ID, uuid.New())
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

// 测试评论：计数权威递增，列表按时间正序附带评论者摘要
func TestAddAndGetComments(t *testing.T) {
	db := newTestDB(t)
	challengeSvc := NewChallengeService(db, nil, 24, 60)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	challenge := createTestChallenge(t, db, challengeSvc)
	submission := createTestSubmission(t, challengeSvc, bob.ID, challenge.ID)

	_, _, err := svc.AddComment(alice.ID, submission.ID, "")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, count, err := svc.AddComment(alice.ID, submission.ID, "nice one")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, count, err = svc.AddComment(bob.ID, submission.ID, "thanks")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	comments, err := svc.GetComments(submission.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "nice one", comments[0].Comment)
	require.NotNil(t, comments[0].User)
	assert.Equal(t, "alice", comments[0].User.Username)
}

// 测试用户在某期挑战里的投票集合
func TestGetUserVotes(t *testing.T) {
	db := newTestDB(t)
	challengeSvc := NewChallengeService(db, nil, 24, 60)
	svc := NewSubmissionService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	challenge := createTestChallenge(t, db, challengeSvc)

	subBob := createTestSubmission(t, challengeSvc, bob.ID, challenge.ID)
	createTestSubmission(t, challengeSvc, carol.ID, challenge.ID)

	_, err := svc.ToggleVote(alice.ID, subBob.ID)
	require.NoError(t, err)

	ids, err := svc.GetUserVotes(alice.ID, challenge.ID)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, subBob.ID, ids[0])
}
