package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/tubeview/internal/middleware"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/service"
	"github.com/user/tubeview/internal/utils"
)

type createVideoReq struct {
	Title       string               `json:"title" binding:"required,max=100"`
	Description string               `json:"description" binding:"max=5000"`
	Duration    float64              `json:"duration" binding:"gte=0"`
	Visibility  model.VisibilityTier `json:"visibility" binding:"omitempty,oneof=everyone authenticated subscribers owner_only"`
}

// CreateVideo 登记视频
func (h *Handler) CreateVideo(c *gin.Context) {
	var req createVideoReq
	if !bindJSON(c, &req) {
		return
	}

	video, err := h.svc.Videos.Register(c.Request.Context(), middleware.GetUserID(c), service.NewVideoInput{
		Title:       req.Title,
		Description: req.Description,
		Duration:    fromSeconds(req.Duration),
		Visibility:  req.Visibility,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Created(c, toVideoDTO(video))
}

// GetVideo 视频详情
func (h *Handler) GetVideo(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Videos.Get(c.Request.Context(), viewer(c, ""), id)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, toVideoDetailDTO(detail))
}

// DeleteVideo 删除视频
func (h *Handler) DeleteVideo(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Videos.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// ListVideos 最新视频
func (h *Handler) ListVideos(c *gin.Context) {
	limit, offset := pagination(c)
	videos, err := h.svc.Videos.ListLatest(c.Request.Context(), viewer(c, ""), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, toVideoDTOs(videos))
}

// ListUserVideos 某个用户的视频
func (h *Handler) ListUserVideos(c *gin.Context) {
	ownerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	limit, offset := pagination(c)
	videos, err := h.svc.Videos.ListByOwner(c.Request.Context(), viewer(c, ""), ownerID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, toVideoDTOs(videos))
}

// ListViewed 我看过的视频
func (h *Handler) ListViewed(c *gin.Context) {
	limit, offset := pagination(c)
	videos, err := h.svc.Videos.ListViewed(c.Request.Context(), viewer(c, ""), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, toVideoDTOs(videos))
}
