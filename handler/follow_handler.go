package handler

import (
	"errors"

	"actify_engage/middleware"
	"actify_engage/service"
	"actify_engage/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FollowHandler struct {
	followSvc *service.FollowService
	hub       *Hub
}

func NewFollowHandler(followSvc *service.FollowService, hub *Hub) *FollowHandler {
	return &FollowHandler{followSvc: followSvc, hub: hub}
}

// Follow 关注目标用户，返回权威的边存在性
func (h *FollowHandler) Follow(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	following, err := h.followSvc.Follow(userID, targetID)
	if err != nil {
		if errors.Is(err, service.ErrSelfFollow) {
			utils.BadRequest(c, err.Error())
			return
		}
		utils.InternalServerError(c, err.Error())
		return
	}

	h.hub.NotifyRelationshipChanged(userID, targetID, following)
	utils.SuccessResponse(c, gin.H{"following": following})
}

// Unfollow 取关目标用户，返回权威的边存在性
func (h *FollowHandler) Unfollow(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	following, err := h.followSvc.Unfollow(userID, targetID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}

	h.hub.NotifyRelationshipChanged(userID, targetID, following)
	utils.SuccessResponse(c, gin.H{"following": following})
}

// GetFollowers 关注我的人
func (h *FollowHandler) GetFollowers(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	followers, err := h.followSvc.GetFollowers(userID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"followers": followers})
}

// GetFollowing 我关注的人
func (h *FollowHandler) GetFollowing(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	following, err := h.followSvc.GetFollowing(userID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"following": following})
}

// GetRelation 一对用户双向边的权威快照
func (h *FollowHandler) GetRelation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	otherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	selfFollowsOther, otherFollowsSelf, err := h.followSvc.Relation(userID, otherID)
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{
		"self_follows_other": selfFollowsOther,
		"other_follows_self": otherFollowsSelf,
	})
}

// SearchUsers 搜索用户（每条结果附带现场推导的关系状态）
func (h *FollowHandler) SearchUsers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	results, err := h.followSvc.SearchUsers(userID, c.Query("q"))
	if err != nil {
		utils.InternalServerError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"users": results})
}
