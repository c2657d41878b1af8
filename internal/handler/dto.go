package handler

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/service"
)

// 接口中的时长与播放位置统一使用秒（浮点数）

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

// fromSeconds 超出 time.Duration 范围时饱和到边界值
func fromSeconds(s float64) time.Duration {
	limit := float64(math.MaxInt64) / float64(time.Second)
	switch {
	case s >= limit:
		return math.MaxInt64
	case s <= -limit:
		return math.MinInt64
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

func toUserDTOs(users []*model.User) []UserDTO {
	res := make([]UserDTO, 0, len(users))
	for _, u := range users {
		res = append(res, toUserDTO(u))
	}
	return res
}

type VideoDTO struct {
	ID          uuid.UUID            `json:"id"`
	OwnerID     uuid.UUID            `json:"owner_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Duration    float64              `json:"duration"`
	Visibility  model.VisibilityTier `json:"visibility"`
	UploadedAt  time.Time            `json:"uploaded_at"`
}

func toVideoDTO(v *model.Video) VideoDTO {
	return VideoDTO{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		Duration:    seconds(v.Duration),
		Visibility:  v.Visibility,
		UploadedAt:  v.UploadedAt,
	}
}

func toVideoDTOs(videos []*model.Video) []VideoDTO {
	res := make([]VideoDTO, 0, len(videos))
	for _, v := range videos {
		res = append(res, toVideoDTO(v))
	}
	return res
}

type VideoDetailDTO struct {
	VideoDTO
	Likes    int64             `json:"likes"`
	Dislikes int64             `json:"dislikes"`
	Views    int64             `json:"views"`
	Resume   *float64          `json:"resume"`
	MyRating *model.LikeStatus `json:"my_rating"`
}

func toVideoDetailDTO(d *service.VideoDetail) VideoDetailDTO {
	res := VideoDetailDTO{
		VideoDTO: toVideoDTO(d.Video),
		Likes:    d.Likes,
		Dislikes: d.Dislikes,
		Views:    d.Views,
		MyRating: d.MyRating,
	}
	if d.Resume != nil {
		pos := seconds(d.Resume.StopTimecode)
		res.Resume = &pos
	}
	return res
}

type ViewDTO struct {
	ID           uuid.UUID `json:"id"`
	VideoID      uuid.UUID `json:"video_id"`
	StopTimecode float64   `json:"stop_timecode"`
	ViewingTime  *float64  `json:"viewing_time"`
	Counted      bool      `json:"counted"`
	CreatedAt    time.Time `json:"created_at"`
}

func toViewDTO(v *model.View) ViewDTO {
	res := ViewDTO{
		ID:           v.ID,
		VideoID:      v.VideoID,
		StopTimecode: seconds(v.StopTimecode),
		Counted:      v.Counted(),
		CreatedAt:    v.CreatedAt,
	}
	if v.ViewingTime != nil {
		vt := seconds(*v.ViewingTime)
		res.ViewingTime = &vt
	}
	return res
}
