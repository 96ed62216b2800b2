package handler

import (
	"errors"

	"actify_engage/middleware"
	"actify_engage/service"
	"actify_engage/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubmissionHandler struct {
	submissionSvc *service.SubmissionService
	challengeSvc  *service.ChallengeService
	hub           *Hub
}

func NewSubmissionHandler(submissionSvc *service.SubmissionService, challengeSvc *service.ChallengeService, hub *Hub) *SubmissionHandler {
	return &SubmissionHandler{
		submissionSvc: submissionSvc,
		challengeSvc:  challengeSvc,
		hub:           hub,
	}
}

// ToggleVote 切换投票，返回权威票数（自投返回 403）
func (h *SubmissionHandler) ToggleVote(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid submission id")
		return
	}

	result, err := h.submissionSvc.ToggleVote(userID, submissionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfVote):
			utils.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrSubmissionNotFound):
			utils.NotFound(c, err.Error())
		default:
			utils.InternalServerError(c, err.Error())
		}
		return
	}

	h.hub.BroadcastVoteUpdate(submissionID, result.VoteCount)
	utils.SuccessResponse(c, result)
}

// AddComment 发表评论，返回权威评论数
func (h *SubmissionHandler) AddComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid submission id")
		return
	}

	var req struct {
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	comment, count, err := h.submissionSvc.AddComment(userID, submissionID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			utils.NotFound(c, err.Error())
		case errors.Is(err, service.ErrEmptyComment):
			utils.BadRequest(c, err.Error())
		default:
			utils.InternalServerError(c, err.Error())
		}
		return
	}

	h.hub.BroadcastCommentUpdate(submissionID, count)
	utils.SuccessResponse(c, gin.H{
		"comment":       comment,
		"comment_count": count,
	})
}

// GetComments 获取投稿的评论列表
func (h *SubmissionHandler) GetComments(c *gin.Context) {
	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid submission id")
		return
	}

	comments, err := h.submissionSvc.GetComments(submissionID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"comments": comments})
}

// GetUserVotes 当前用户在当期挑战里投过票的投稿 id 集合
func (h *SubmissionHandler) GetUserVotes(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	challenge, err := h.challengeSvc.GetCurrentChallenge()
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	if challenge == nil {
		utils.SuccessResponse(c, gin.H{"global_submission_ids": []uuid.UUID{}})
		return
	}

	ids, err := h.submissionSvc.GetUserVotes(userID, challenge.ID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"global_submission_ids": ids})
}
