package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/repository"
)

// UserService 账号与订阅关系
type UserService struct {
	users repository.UserStore
	subs  repository.SubscriptionStore
}

func NewUserService(users repository.UserStore, subs repository.SubscriptionStore) *UserService {
	return &UserService{users: users, subs: subs}
}

// Register 注册
func (s *UserService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	user, err := s.users.Create(ctx, email, username, password)
	if errors.Is(err, repository.ErrUserExists) {
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	log.Printf("[UserService] 新用户注册: %s", user.ID)
	return user, nil
}

// Login 邮箱不存在与密码错误返回同一个错误
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil || !s.users.CheckPassword(user, password) {
		return nil, ErrLoginBadCredentials
	}
	return user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, ErrNonExistentUser
	}
	return user, nil
}

// Subscribe 订阅作者，不能订阅自己
func (s *UserService) Subscribe(ctx context.Context, subscriberID, ownerID uuid.UUID) error {
	if subscriberID == ownerID {
		return ErrInvalidField.WithReason("不能订阅自己")
	}
	if _, err := s.Get(ctx, ownerID); err != nil {
		return err
	}
	if err := s.subs.Add(ctx, subscriberID, ownerID); err != nil {
		return fmt.Errorf("订阅失败: %w", err)
	}
	return nil
}

// Unsubscribe 取消订阅，原本未订阅时返回 ErrNonExistentUser
func (s *UserService) Unsubscribe(ctx context.Context, subscriberID, ownerID uuid.UUID) error {
	removed, err := s.subs.Remove(ctx, subscriberID, ownerID)
	if err != nil {
		return fmt.Errorf("取消订阅失败: %w", err)
	}
	if !removed {
		return ErrNonExistentUser.WithReason("未订阅该用户")
	}
	return nil
}

// Subscriptions 我订阅的人
func (s *UserService) Subscriptions(ctx context.Context, userID uuid.UUID) ([]*model.User, error) {
	return s.subs.ListSubscribed(ctx, userID)
}

// Subscribers 订阅我的人
func (s *UserService) Subscribers(ctx context.Context, userID uuid.UUID) ([]*model.User, error) {
	return s.subs.ListSubscribers(ctx, userID)
}
