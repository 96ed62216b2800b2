package service

import (
	"testing"
	"time"

	"actify_engage/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试轮换与当期查询
func TestRotateAndGetCurrentChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, nil, 24, 60)

	current, err := svc.GetCurrentChallenge()
	require.NoError(t, err)
	assert.Nil(t, current, "还没有任何挑战")

	created := createTestChallenge(t, db, svc)
	current, err = svc.GetCurrentChallenge()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, created.ID, current.ID)
	assert.Equal(t, 24*3600, current.WindowSeconds)
}

// 测试窗口结束后的挑战不算当期
func TestExpiredChallengeNotCurrent(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, nil, 24, 60)

	expired := &model.GlobalChallenge{
		Prompt:        "old prompt",
		StartedAt:     time.Now().UTC().Add(-48 * time.Hour),
		WindowSeconds: 24 * 3600,
	}
	require.NoError(t, db.Create(expired).Error)

	current, err := svc.GetCurrentChallenge()
	require.NoError(t, err)
	assert.Nil(t, current)
}

// 测试启动兜底：没有活跃挑战就立即开一期
func TestEnsureActiveChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, nil, 24, 60)

	require.NoError(t, svc.EnsureActiveChallenge())
	current, err := svc.GetCurrentChallenge()
	require.NoError(t, err)
	require.NotNil(t, current)

	// 已有活跃挑战时不重复开
	require.NoError(t, svc.EnsureActiveChallenge())
	var count int64
	require.NoError(t, db.Model(&model.GlobalChallenge{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// 测试投稿：每人每期只能一次
func TestCreateSubmissionOncePerCycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, nil, 24, 60)
	alice := createTestUser(t, db, "alice")
	challenge := createTestChallenge(t, db, svc)

	submitted, err := svc.HasSubmitted(alice.ID, challenge.ID)
	require.NoError(t, err)
	assert.False(t, submitted)

	createTestSubmission(t, svc, alice.ID, challenge.ID)

	submitted, err = svc.HasSubmitted(alice.ID, challenge.ID)
	require.NoError(t, err)
	assert.True(t, submitted)

	_, err = svc.CreateSubmission(alice.ID, challenge.ID, "again", "")
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
}

// 测试窗口结束后投稿被拒绝
func TestCreateSubmissionAfterWindowEnds(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, nil, 24, 60)
	alice := createTestUser(t, db, "alice")

	ended := &model.GlobalChallenge{
		Prompt:        "old prompt",
		StartedAt:     time.Now().UTC().Add(-48 * time.Hour),
		WindowSeconds: 24 * 3600,
	}
	require.NoError(t, db.Create(ended).Error)

	_, err := svc.CreateSubmission(alice.ID, ended.ID, "too late", "")
	assert.ErrorIs(t, err, ErrChallengeEnded)
}

// 测试剩余时间：结束后归零
func TestTimeRemaining(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, nil, 24, 60)
	challenge := createTestChallenge(t, db, svc)

	assert.Greater(t, svc.TimeRemaining(challenge), 0)

	ended := &model.GlobalChallenge{
		StartedAt:     time.Now().UTC().Add(-48 * time.Hour),
		WindowSeconds: 24 * 3600,
	}
	assert.Equal(t, 0, svc.TimeRemaining(ended))
}
