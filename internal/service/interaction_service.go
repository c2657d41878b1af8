package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/repository"
	"golang.org/x/sync/errgroup"
)

// InteractionService 点赞与评论，读写前都经过可见范围校验
type InteractionService struct {
	views    *ViewService
	likes    repository.LikeStore
	comments repository.CommentStore
}

func NewInteractionService(views *ViewService, likes repository.LikeStore, comments repository.CommentStore) *InteractionService {
	return &InteractionService{views: views, likes: likes, comments: comments}
}

// LikeCounts 点赞/点踩数量
type LikeCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// GetLikes 统计视频评价
func (s *InteractionService) GetLikes(ctx context.Context, viewer Viewer, videoID uuid.UUID) (*LikeCounts, error) {
	if _, err := s.views.authorizedVideo(ctx, viewer, videoID); err != nil {
		return nil, err
	}

	var res LikeCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.Likes, err = s.likes.Count(gctx, videoID, model.LikeStatusLike)
		return err
	})
	g.Go(func() (err error) {
		res.Dislikes, err = s.likes.Count(gctx, videoID, model.LikeStatusDislike)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("统计评价失败: %w", err)
	}
	return &res, nil
}

// Rate 点赞或点踩，重复提交覆盖上一次
func (s *InteractionService) Rate(ctx context.Context, viewer Viewer, videoID uuid.UUID, status model.LikeStatus) (*model.Like, error) {
	if status != model.LikeStatusLike && status != model.LikeStatusDislike {
		return nil, ErrInvalidField.WithReason("status 只能是 like 或 dislike")
	}
	if _, err := s.views.authorizedVideo(ctx, viewer, videoID); err != nil {
		return nil, err
	}

	l := &model.Like{UserID: viewer.UserID, VideoID: videoID, Status: status, UpdatedAt: time.Now()}
	if err := s.likes.Upsert(ctx, l); err != nil {
		return nil, fmt.Errorf("保存评价失败: %w", err)
	}
	return l, nil
}

// Unrate 取消评价
func (s *InteractionService) Unrate(ctx context.Context, userID, videoID uuid.UUID) error {
	removed, err := s.likes.Remove(ctx, userID, videoID)
	if err != nil {
		return fmt.Errorf("取消评价失败: %w", err)
	}
	if !removed {
		return ErrNonExistentRating
	}
	return nil
}

// AddComment 发表评论
func (s *InteractionService) AddComment(ctx context.Context, viewer Viewer, videoID uuid.UUID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidField.WithReason("评论内容不能为空")
	}
	if _, err := s.views.authorizedVideo(ctx, viewer, videoID); err != nil {
		return nil, err
	}

	c := &model.Comment{VideoID: videoID, AuthorID: viewer.UserID, Text: text, CreatedAt: time.Now()}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("保存评论失败: %w", err)
	}
	return c, nil
}

// ListComments 按时间倒序
func (s *InteractionService) ListComments(ctx context.Context, viewer Viewer, videoID uuid.UUID, limit, offset int) ([]*model.Comment, error) {
	if _, err := s.views.authorizedVideo(ctx, viewer, videoID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByVideo(ctx, videoID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("获取评论失败: %w", err)
	}
	return comments, nil
}

// DeleteComment 只能删除自己的评论
func (s *InteractionService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return fmt.Errorf("查询评论失败: %w", err)
	}
	if c == nil {
		return ErrNonExistentComment
	}
	if c.AuthorID != userID {
		return ErrAccessDenied
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("删除评论失败: %w", err)
	}
	return nil
}
