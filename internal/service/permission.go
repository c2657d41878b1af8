package service

import (
	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
)

// Viewer 请求方上下文：匿名访客只有设备指纹，登录用户带用户 ID。
// 订阅标记只对 WithSubscription 指定的那一个作者成立。
type Viewer struct {
	UserID      uuid.UUID
	Fingerprint string

	subscribedOwner uuid.UUID
	subscribed      bool
}

// AnonymousViewer 构造匿名访客
func AnonymousViewer(fingerprint string) Viewer {
	return Viewer{Fingerprint: fingerprint}
}

// IdentifiedViewer 构造登录用户
func IdentifiedViewer(userID uuid.UUID, fingerprint string) Viewer {
	return Viewer{UserID: userID, Fingerprint: fingerprint}
}

// Identified 是否为登录用户
func (v Viewer) Identified() bool {
	return v.UserID != uuid.Nil
}

// IDPtr 登录用户返回 ID 指针，匿名返回 nil
func (v Viewer) IDPtr() *uuid.UUID {
	if !v.Identified() {
		return nil
	}
	id := v.UserID
	return &id
}

// WithSubscription 返回带有"是否订阅 ownerID"标记的副本，会覆盖之前针对其他作者的标记
func (v Viewer) WithSubscription(ownerID uuid.UUID, subscribed bool) Viewer {
	v.subscribedOwner = ownerID
	v.subscribed = subscribed
	return v
}

// IsSubscribedTo 是否订阅了指定作者
func (v Viewer) IsSubscribedTo(ownerID uuid.UUID) bool {
	return v.Identified() && v.subscribed && v.subscribedOwner == ownerID
}

// Identity 配额计数使用的身份键
func (v Viewer) Identity() model.ViewIdentity {
	return model.ViewIdentity{ViewerID: v.IDPtr(), Fingerprint: v.Fingerprint}
}

// TierSet 可见范围集合
type TierSet map[model.VisibilityTier]struct{}

// Has 集合是否包含 tier
func (s TierSet) Has(tier model.VisibilityTier) bool {
	_, ok := s[tier]
	return ok
}

// Slice 按固定顺序返回集合内容
func (s TierSet) Slice() []model.VisibilityTier {
	res := make([]model.VisibilityTier, 0, len(s))
	for _, t := range []model.VisibilityTier{model.TierEveryone, model.TierAuthenticated, model.TierSubscribers, model.TierOwnerOnly} {
		if s.Has(t) {
			res = append(res, t)
		}
	}
	return res
}

// ResolveAllowedTiers 计算 viewer 对某作者内容可访问的范围。
// ownerID 为 nil 时（通用列表）只能依据 viewer 自带的订阅标记判断。
// 订阅状态由调用方预先查好，这里不做任何 I/O。
func ResolveAllowedTiers(viewer Viewer, ownerID *uuid.UUID) TierSet {
	tiers := TierSet{model.TierEveryone: {}}
	if !viewer.Identified() {
		return tiers
	}
	tiers[model.TierAuthenticated] = struct{}{}

	isOwner := ownerID != nil && *ownerID == viewer.UserID
	if isOwner {
		tiers[model.TierOwnerOnly] = struct{}{}
	}

	subscribed := viewer.subscribed
	if ownerID != nil {
		subscribed = viewer.IsSubscribedTo(*ownerID)
	}
	if isOwner || subscribed {
		tiers[model.TierSubscribers] = struct{}{}
	}
	return tiers
}

// Authorize 内容声明的可见范围不在允许集合内时返回 ErrAccessDenied
func Authorize(viewer Viewer, ownerID uuid.UUID, tier model.VisibilityTier) error {
	if !ResolveAllowedTiers(viewer, &ownerID).Has(tier) {
		return ErrAccessDenied
	}
	return nil
}
