package service

import (
	"fmt"
	"strings"
	"testing"

	"actify_engage/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存 SQLite 库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 每个测试用独立命名的共享缓存库，连接池内的连接看到同一份数据
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.UserFollow{},
		&model.GlobalChallenge{},
		&model.GlobalSubmission{},
		&model.SubmissionVote{},
		&model.SubmissionComment{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, FullName: username + " test"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestChallenge(t *testing.T, db *gorm.DB, svc *ChallengeService) *model.GlobalChallenge {
	t.Helper()
	challenge, err := svc.RotateChallenge()
	require.NoError(t, err)
	return challenge
}

func createTestSubmission(t *testing.T, svc *ChallengeService, userID, challengeID uuid.UUID) *model.GlobalSubmission {
	t.Helper()
	submission, err := svc.CreateSubmission(userID, challengeID, "did my workout", "")
	require.NoError(t, err)
	return submission
}
