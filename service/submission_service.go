package service

import (
	"errors"
	"fmt"

	"actify_engage/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSelfVote           = errors.New("cannot vote on your own submission")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrEmptyComment       = errors.New("comment cannot be empty")
)

// VoteResult 投票后的权威状态
type VoteResult struct {
	VoteCount      int  `json:"vote_count"`
	ViewerHasVoted bool `json:"viewer_has_voted"`
}

// FeedResponse 全局动态响应（locked 时绝不带投稿数据）
type FeedResponse struct {
	Status              string                   `json:"status"` // 'locked' | 'unlocked'
	UserHasSubmitted    bool                     `json:"user_has_submitted"`
	TotalParticipants   int64                    `json:"total_participants"`
	FriendsParticipants int                      `json:"friends_participants,omitempty"`
	Submissions         []model.GlobalSubmission `json:"submissions,omitempty"`
}

type SubmissionService struct {
	db        *gorm.DB
	followSvc *FollowService
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{db: db, followSvc: NewFollowService(db)}
}

// GetGlobalFeed 获取全局动态。未投稿的用户只拿到 locked 状态，
// 投稿数据在取数边界就被拦下（保密规则，不是前端隐藏）。
func (s *SubmissionService) GetGlobalFeed(viewerID, challengeID uuid.UUID, friendsOnly bool) (*FeedResponse, error) {
	var submitted int64
	err := s.db.Model(&model.GlobalSubmission{}).
		Where("user_id = ? AND challenge_id = ?", viewerID, challengeID).
		Count(&submitted).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check viewer submission: %w", err)
	}

	var total int64
	err = s.db.Model(&model.GlobalSubmission{}).
		Where("challenge_id = ?", challengeID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	if submitted == 0 {
		return &FeedResponse{
			Status:            "locked",
			UserHasSubmitted:  false,
			TotalParticipants: total,
		}, nil
	}

	var submissions []model.GlobalSubmission
	err = s.db.Where("challenge_id = ?", challengeID).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}

	friendsParticipants := 0
	if friendsOnly {
		friends, err := s.followSvc.FriendIDs(viewerID)
		if err != nil {
			return nil, err
		}
		filtered := make([]model.GlobalSubmission, 0, len(submissions))
		for _, sub := range submissions {
			if friends[sub.UserID] || sub.UserID == viewerID {
				filtered = append(filtered, sub)
			}
		}
		submissions = filtered
		friendsParticipants = len(filtered)
	}

	if err := s.attachAuthors(viewerID, submissions); err != nil {
		return nil, err
	}

	return &FeedResponse{
		Status:              "unlocked",
		UserHasSubmitted:    true,
		TotalParticipants:   total,
		FriendsParticipants: friendsParticipants,
		Submissions:         submissions,
	}, nil
}

// ToggleVote 切换投票：没投过就 +1，投过就取消。自投直接拒绝。
// 返回事务后的权威票数，并发投票也不会串。
func (s *SubmissionService) ToggleVote(userID, submissionID uuid.UUID) (*VoteResult, error) {
	var result VoteResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var submission model.GlobalSubmission
		err := tx.First(&submission, "id = ?", submissionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load submission: %w", err)
		}
		if submission.UserID == userID {
			return ErrSelfVote
		}

		var vote model.SubmissionVote
		err = tx.Where("submission_id = ? AND user_id = ?", submissionID, userID).
			First(&vote).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 新投票
			if err := tx.Create(&model.SubmissionVote{
				SubmissionID: submissionID,
				UserID:       userID,
			}).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			if err := tx.Model(&model.GlobalSubmission{}).
				Where("id = ?", submissionID).
				Update("vote_count", gorm.Expr("vote_count + 1")).Error; err != nil {
				return fmt.Errorf("failed to increment vote count: %w", err)
			}
			result.ViewerHasVoted = true
		case err != nil:
			return fmt.Errorf("failed to check vote: %w", err)
		default:
			// 取消投票
			if err := tx.Delete(&vote).Error; err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
			if err := tx.Model(&model.GlobalSubmission{}).
				Where("id = ?", submissionID).
				Update("vote_count", gorm.Expr("vote_count - 1")).Error; err != nil {
				return fmt.Errorf("failed to decrement vote count: %w", err)
			}
			result.ViewerHasVoted = false
		}

		// 读回权威票数
		var updated model.GlobalSubmission
		if err := tx.First(&updated, "id = ?", submissionID).Error; err != nil {
			return fmt.Errorf("failed to reload submission: %w", err)
		}
		result.VoteCount = updated.VoteCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddComment 发表评论，返回评论记录和权威评论数
func (s *SubmissionService) AddComment(userID, submissionID uuid.UUID, text string) (*model.SubmissionComment, int, error) {
	if text == "" {
		return nil, 0, ErrEmptyComment
	}

	var comment *model.SubmissionComment
	var count int

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var submission model.GlobalSubmission
		err := tx.First(&submission, "id = ?", submissionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load submission: %w", err)
		}

		comment = &model.SubmissionComment{
			SubmissionID: submissionID,
			UserID:       userID,
			Comment:      text,
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		if err := tx.Model(&model.GlobalSubmission{}).
			Where("id = ?", submissionID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment comment count: %w", err)
		}

		var updated model.GlobalSubmission
		if err := tx.First(&updated, "id = ?", submissionID).Error; err != nil {
			return fmt.Errorf("failed to reload submission: %w", err)
		}
		count = updated.CommentCount
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return comment, count, nil
}

// GetComments 按时间正序返回评论（附带评论者摘要）
func (s *SubmissionService) GetComments(submissionID uuid.UUID) ([]model.SubmissionComment, error) {
	var comments []model.SubmissionComment
	err := s.db.Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		userIDs = append(userIDs, c.UserID)
	}
	userMap, err := s.userSummaries(userIDs)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if u, ok := userMap[comments[i].UserID]; ok {
			comments[i].User = u
		}
	}
	return comments, nil
}

// GetUserVotes 用户在某期挑战里投过票的投稿 id 集合
func (s *SubmissionService) GetUserVotes(userID, challengeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&model.SubmissionVote{}).
		Joins("JOIN global_submissions gs ON gs.id = submission_votes.submission_id").
		Where("submission_votes.user_id = ? AND gs.challenge_id = ?", userID, challengeID).
		Pluck("submission_votes.submission_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user votes: %w", err)
	}
	return ids, nil
}

// ViewerVoteSet 观看者对一批投稿的投票标记
func (s *SubmissionService) ViewerVoteSet(viewerID uuid.UUID, submissionIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(submissionIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var ids []uuid.UUID
	err := s.db.Model(&model.SubmissionVote{}).
		Where("user_id = ? AND submission_id IN ?", viewerID, submissionIDs).
		Pluck("submission_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query viewer votes: %w", err)
	}
	voted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}

// attachAuthors 批量补充投稿作者摘要和观看者投票标记（避免 N+1）
func (s *SubmissionService) attachAuthors(viewerID uuid.UUID, submissions []model.GlobalSubmission) error {
	if len(submissions) == 0 {
		return nil
	}

	userIDs := make([]uuid.UUID, 0, len(submissions))
	subIDs := make([]uuid.UUID, 0, len(submissions))
	for _, sub := range submissions {
		userIDs = append(userIDs, sub.UserID)
		subIDs = append(subIDs, sub.ID)
	}

	userMap, err := s.userSummaries(userIDs)
	if err != nil {
		return err
	}
	voted, err := s.ViewerVoteSet(viewerID, subIDs)
	if err != nil {
		return err
	}
	for i := range submissions {
		if u, ok := userMap[submissions[i].UserID]; ok {
			submissions[i].User = u
		}
		submissions[i].ViewerHasVoted = voted[submissions[i].ID]
	}
	return nil
}

// userSummaries 批量查询用户摘要
func (s *SubmissionService) userSummaries(ids []uuid.UUID) (map[uuid.UUID]*model.UserSummary, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*model.UserSummary{}, nil
	}
	var users []model.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	userMap := make(map[uuid.UUID]*model.UserSummary, len(users))
	for _, u := range users {
		userMap[u.ID] = &model.UserSummary{
			ID:          u.ID,
			Username:    u.Username,
			FullName:    u.FullName,
			AvatarColor: u.AvatarColor,
		}
	}
	return userMap, nil
}
