package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"actify_engage/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrNoActiveChallenge   = errors.New("no active challenge")
	ErrChallengeEnded      = errors.New("challenge window has ended")
	ErrDuplicateSubmission = errors.New("already submitted for this challenge")
)

// 当前挑战的 Redis 缓存键
const currentChallengeCacheKey = "challenge:current"

// 默认题目池（没有运营配置时按天轮换）
var defaultPrompts = []string{
	"Take a photo of your workout today",
	"Show us your favorite outdoor spot",
	"Capture your healthiest meal of the day",
	"Share your morning routine in one shot",
	"Photograph something that got your heart rate up",
	"Show your post-exercise victory pose",
	"Capture a moment of active rest",
}

type ChallengeService struct {
	db            *gorm.DB
	rdb           *redis.Client
	windowSeconds int
	cacheTTL      time.Duration
}

func NewChallengeService(db *gorm.DB, rdb *redis.Client, windowHours, cacheTTLSeconds int) *ChallengeService {
	return &ChallengeService{
		db:            db,
		rdb:           rdb,
		windowSeconds: windowHours * 3600,
		cacheTTL:      time.Duration(cacheTTLSeconds) * time.Second,
	}
}

// GetCurrentChallenge 获取当期挑战（Redis 缓存优先），没有则返回 (nil, nil)
func (s *ChallengeService) GetCurrentChallenge() (*model.GlobalChallenge, error) {
	now := time.Now().UTC()

	if s.rdb != nil {
		ctx := context.Background()
		if cached, err := s.rdb.Get(ctx, currentChallengeCacheKey).Result(); err == nil {
			var challenge model.GlobalChallenge
			if json.Unmarshal([]byte(cached), &challenge) == nil && challenge.IsActive(now) {
				return &challenge, nil
			}
		}
	}

	var challenge model.GlobalChallenge
	err := s.db.Where("started_at <= ?", now).
		Order("started_at DESC").
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query current challenge: %w", err)
	}
	if !challenge.IsActive(now) {
		return nil, nil
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(&challenge); err == nil {
			s.rdb.Set(context.Background(), currentChallengeCacheKey, payload, s.cacheTTL)
		}
	}
	return &challenge, nil
}

// RotateChallenge 开启新一期挑战（cron 定时触发），并刷新缓存
func (s *ChallengeService) RotateChallenge() (*model.GlobalChallenge, error) {
	var count int64
	if err := s.db.Model(&model.GlobalChallenge{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count challenges: %w", err)
	}

	challenge := &model.GlobalChallenge{
		Prompt:        defaultPrompts[int(count)%len(defaultPrompts)],
		StartedAt:     time.Now().UTC(),
		WindowSeconds: s.windowSeconds,
	}
	if err := s.db.Create(challenge).Error; err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	if s.rdb != nil {
		s.rdb.Del(context.Background(), currentChallengeCacheKey)
	}

	log.Printf("🏁 New challenge cycle started: %s (%s)", challenge.Prompt, challenge.ID)
	return challenge, nil
}

// EnsureActiveChallenge 启动时兜底：没有活跃挑战就立即开一期
func (s *ChallengeService) EnsureActiveChallenge() error {
	current, err := s.GetCurrentChallenge()
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	_, err = s.RotateChallenge()
	return err
}

// HasSubmitted 用户在该期是否已投稿
func (s *ChallengeService) HasSubmitted(userID, challengeID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&model.GlobalSubmission{}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check submission: %w", err)
	}
	return count > 0, nil
}

// CreateSubmission 提交当期活动。每人每期只能投一次，窗口结束后拒绝。
func (s *ChallengeService) CreateSubmission(userID, challengeID uuid.UUID, description, photoURL string) (*model.GlobalSubmission, error) {
	var challenge model.GlobalChallenge
	err := s.db.First(&challenge, "id = ?", challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if !challenge.IsActive(time.Now().UTC()) {
		return nil, ErrChallengeEnded
	}

	submitted, err := s.HasSubmitted(userID, challengeID)
	if err != nil {
		return nil, err
	}
	if submitted {
		return nil, ErrDuplicateSubmission
	}

	submission := &model.GlobalSubmission{
		ChallengeID: challengeID,
		UserID:      userID,
		Description: description,
		PhotoURL:    photoURL,
	}
	if err := s.db.Create(submission).Error; err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return submission, nil
}

// TimeRemaining 当期挑战剩余秒数
func (s *ChallengeService) TimeRemaining(challenge *model.GlobalChallenge) int {
	remaining := int(time.Until(challenge.EndsAt()).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
