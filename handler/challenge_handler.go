package handler

import (
	"errors"

	"actify_engage/middleware"
	"actify_engage/service"
	"actify_engage/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChallengeHandler struct {
	challengeSvc  *service.ChallengeService
	submissionSvc *service.SubmissionService
	hub           *Hub
}

func NewChallengeHandler(challengeSvc *service.ChallengeService, submissionSvc *service.SubmissionService, hub *Hub) *ChallengeHandler {
	return &ChallengeHandler{
		challengeSvc:  challengeSvc,
		submissionSvc: submissionSvc,
		hub:           hub,
	}
}

// GetCurrentChallenge 获取当期挑战（带剩余时间）
func (h *ChallengeHandler) GetCurrentChallenge(c *gin.Context) {
	challenge, err := h.challengeSvc.GetCurrentChallenge()
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	if challenge == nil {
		utils.SuccessResponse(c, gin.H{"challenge": nil})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"challenge":      challenge,
		"time_remaining": h.challengeSvc.TimeRemaining(challenge),
	})
}

// GetGateStatus 查询当前用户对当期挑战的投稿状态
func (h *ChallengeHandler) GetGateStatus(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid challenge id")
		return
	}

	submitted, err := h.challengeSvc.HasSubmitted(userID, challengeID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"has_submitted": submitted})
}

// CreateSubmission 提交当期活动（成功即对该用户解锁动态）
func (h *ChallengeHandler) CreateSubmission(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req struct {
		ChallengeID uuid.UUID `json:"challenge_id" binding:"required"`
		Description string    `json:"description"`
		PhotoURL    string    `json:"photo_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	submission, err := h.challengeSvc.CreateSubmission(userID, req.ChallengeID, req.Description, req.PhotoURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateSubmission):
			utils.Conflict(c, err.Error())
		case errors.Is(err, service.ErrNoActiveChallenge), errors.Is(err, service.ErrChallengeEnded):
			utils.BadRequest(c, err.Error())
		default:
			utils.InternalServerError(c, err.Error())
		}
		return
	}

	// 推送：本人闸门解锁 + 全员新投稿
	h.hub.NotifyGateChanged(userID, "unlocked", req.ChallengeID)
	h.hub.BroadcastNewSubmission(submission.ID, userID)

	utils.SuccessResponse(c, gin.H{"submission": submission})
}

// GetGlobalFeed 获取全局动态（locked 时不返回任何投稿）
func (h *ChallengeHandler) GetGlobalFeed(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	challenge, err := h.challengeSvc.GetCurrentChallenge()
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	if challenge == nil {
		utils.SuccessResponse(c, gin.H{"status": "none"})
		return
	}

	friendsOnly := c.Query("friends_only") == "true"
	feed, err := h.submissionSvc.GetGlobalFeed(userID, challenge.ID, friendsOnly)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, feed)
}
