package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/tubeview/internal/model"
)

func TestValidateAndClamp(t *testing.T) {
	video := &model.Video{ID: uuid.New(), Duration: 120 * time.Second}

	t.Run("范围内原样返回", func(t *testing.T) {
		got, err := ValidateAndClamp(report(video.ID, "fp", 30*time.Second, 20*time.Second), video)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, got.StopTimecode)
		assert.Equal(t, 20*time.Second, got.ViewingTime)
	})

	t.Run("超出时长截断", func(t *testing.T) {
		got, err := ValidateAndClamp(report(video.ID, "fp", 130*time.Second, 500*time.Second), video)
		require.NoError(t, err)
		assert.Equal(t, video.Duration, got.StopTimecode)
		assert.Equal(t, video.Duration, got.ViewingTime)
	})

	t.Run("负的观看时长", func(t *testing.T) {
		_, err := ValidateAndClamp(report(video.ID, "fp", 0, -time.Second), video)
		assert.ErrorIs(t, err, ErrInvalidView)
	})

	t.Run("负的停止位置", func(t *testing.T) {
		_, err := ValidateAndClamp(report(video.ID, "fp", -time.Second, 0), video)
		require.ErrorIs(t, err, ErrInvalidView)
		appErr, ok := AsAppError(err)
		require.True(t, ok)
		assert.NotEmpty(t, appErr.Reason)
	})

	t.Run("零时长视频", func(t *testing.T) {
		empty := &model.Video{ID: uuid.New()}
		got, err := ValidateAndClamp(report(empty.ID, "fp", time.Second, time.Second), empty)
		require.NoError(t, err)
		assert.Zero(t, got.StopTimecode)
		assert.Zero(t, got.ViewingTime)
	})
}
