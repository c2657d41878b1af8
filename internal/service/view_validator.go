package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
)

// ViewReport 客户端上报的一次观看
type ViewReport struct {
	VideoID      uuid.UUID
	Fingerprint  string
	StopTimecode time.Duration
	ViewingTime  time.Duration
}

// ValidateAndClamp 负值直接拒绝；超过视频时长的值截断到视频时长（缓冲导致的轻微越界属正常）
func ValidateAndClamp(report ViewReport, video *model.Video) (ViewReport, error) {
	if report.ViewingTime < 0 {
		return report, ErrInvalidView.WithReason("viewing_time 不能为负数")
	}
	if report.StopTimecode < 0 {
		return report, ErrInvalidView.WithReason("stop_timecode 不能为负数")
	}

	if report.StopTimecode > video.Duration {
		report.StopTimecode = video.Duration
	}
	if report.ViewingTime > video.Duration {
		report.ViewingTime = video.Duration
	}
	return report, nil
}
