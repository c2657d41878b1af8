package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user/tubeview/internal/middleware"
	"github.com/user/tubeview/internal/service"
	"github.com/user/tubeview/internal/utils"
)

// recordViewReq 时间单位为秒；负值交给业务层报 InvalidView
type recordViewReq struct {
	VideoID      uuid.UUID `json:"video_id" binding:"required"`
	Fingerprint  string    `json:"fingerprint" binding:"required,max=64"`
	StopTimecode float64   `json:"stop_timecode"`
	ViewingTime  float64   `json:"viewing_time"`
}

// RecordView 上报一次观看
func (h *Handler) RecordView(c *gin.Context) {
	var req recordViewReq
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Views.RecordView(c.Request.Context(), viewer(c, req.Fingerprint), service.ViewReport{
		VideoID:      req.VideoID,
		Fingerprint:  req.Fingerprint,
		StopTimecode: fromSeconds(req.StopTimecode),
		ViewingTime:  fromSeconds(req.ViewingTime),
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Created(c, toViewDTO(view))
}

// RemoveView 从观看历史中移除，不影响观看数
func (h *Handler) RemoveView(c *gin.Context) {
	videoID, ok := uuidParam(c, "video_id")
	if !ok {
		return
	}

	if err := h.svc.Views.RemoveUserView(c.Request.Context(), middleware.GetUserID(c), videoID); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// ViewCount 视频观看数
func (h *Handler) ViewCount(c *gin.Context) {
	videoID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	n, err := h.svc.Views.GetVideoViewCount(c.Request.Context(), viewer(c, ""), videoID)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, gin.H{"video_id": videoID, "views": n})
}

// Resume 续播位置，没有记录时 position 为 null
func (h *Handler) Resume(c *gin.Context) {
	videoID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.svc.Views.GetResumePosition(c.Request.Context(), viewer(c, ""), videoID)
	if err != nil {
		fail(c, err)
		return
	}
	var position *float64
	if view != nil {
		pos := seconds(view.StopTimecode)
		position = &pos
	}
	utils.Success(c, gin.H{"video_id": videoID, "position": position})
}
