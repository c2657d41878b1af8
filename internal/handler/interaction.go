package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/tubeview/internal/middleware"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/utils"
)

type rateReq struct {
	Status model.LikeStatus `json:"status" binding:"required,oneof=like dislike"`
}

type commentReq struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// Likes 点赞/点踩统计
func (h *Handler) Likes(c *gin.Context) {
	videoID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	counts, err := h.svc.Interactions.GetLikes(c.Request.Context(), viewer(c, ""), videoID)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, counts)
}

// Rate 点赞或点踩
func (h *Handler) Rate(c *gin.Context) {
	videoID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req rateReq
	if !bindJSON(c, &req) {
		return
	}

	like, err := h.svc.Interactions.Rate(c.Request.Context(), viewer(c, ""), videoID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, like)
}

// Unrate 取消评价
func (h *Handler) Unrate(c *gin.Context) {
	videoID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Interactions.Unrate(c.Request.Context(), middleware.GetUserID(c), videoID); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// Comments 评论列表
func (h *Handler) Comments(c *gin.Context) {
	videoID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	limit, offset := pagination(c)
	comments, err := h.svc.Interactions.ListComments(c.Request.Context(), viewer(c, ""), videoID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, comments)
}

// AddComment 发表评论
func (h *Handler) AddComment(c *gin.Context) {
	videoID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req commentReq
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.svc.Interactions.AddComment(c.Request.Context(), viewer(c, ""), videoID, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Created(c, comment)
}

// DeleteComment 删除自己的评论
func (h *Handler) DeleteComment(c *gin.Context) {
	commentID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Interactions.DeleteComment(c.Request.Context(), middleware.GetUserID(c), commentID); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// Subscribe 订阅用户
func (h *Handler) Subscribe(c *gin.Context) {
	ownerID, ok := uuidParam(c, "owner_id")
	if !ok {
		return
	}

	if err := h.svc.Users.Subscribe(c.Request.Context(), middleware.GetUserID(c), ownerID); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// Unsubscribe 取消订阅
func (h *Handler) Unsubscribe(c *gin.Context) {
	ownerID, ok := uuidParam(c, "owner_id")
	if !ok {
		return
	}

	if err := h.svc.Users.Unsubscribe(c.Request.Context(), middleware.GetUserID(c), ownerID); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// Subscriptions 我订阅的用户
func (h *Handler) Subscriptions(c *gin.Context) {
	users, err := h.svc.Users.Subscriptions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, toUserDTOs(users))
}

// Subscribers 订阅我的用户
func (h *Handler) Subscribers(c *gin.Context) {
	users, err := h.svc.Users.Subscribers(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, toUserDTOs(users))
}
