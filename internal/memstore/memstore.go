// Package memstore 是 repository 各存储接口的内存实现，供测试使用
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type pointerKey struct {
	viewer, video uuid.UUID
}

type subKey struct {
	subscriber, subscribed uuid.UUID
}

// Store 所有数据共用一把锁
type Store struct {
	mu sync.Mutex

	users    map[uuid.UUID]*model.User
	videos   map[uuid.UUID]*model.Video
	subs     map[subKey]time.Time
	views    map[uuid.UUID]*model.View
	pointers map[pointerKey]*model.UserView
	likes    map[pointerKey]*model.Like
	comments map[uuid.UUID]*model.Comment

	// FailPointerUpsert 非 nil 时续播指针写入返回该错误，用于验证事务回滚
	FailPointerUpsert error
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*model.User),
		videos:   make(map[uuid.UUID]*model.Video),
		subs:     make(map[subKey]time.Time),
		views:    make(map[uuid.UUID]*model.View),
		pointers: make(map[pointerKey]*model.UserView),
		likes:    make(map[pointerKey]*model.Like),
		comments: make(map[uuid.UUID]*model.Comment),
	}
}

func (s *Store) Users() *Users                 { return &Users{s} }
func (s *Store) Videos() *Videos               { return &Videos{s} }
func (s *Store) Subscriptions() *Subscriptions { return &Subscriptions{s} }
func (s *Store) Views() *Views                 { return &Views{s: s} }
func (s *Store) Pointers() *Pointers           { return &Pointers{s: s} }
func (s *Store) Likes() *Likes                 { return &Likes{s} }
func (s *Store) Comments() *Comments           { return &Comments{s} }

// AddVideo 直接写入一条视频，测试造数用
func (s *Store) AddVideo(v *model.Video) *model.Video {
	_ = s.Videos().Create(context.Background(), v)
	return v
}

// AllViews 按创建时间升序返回全部观看记录
func (s *Store) AllViews() []*model.View {
	return s.snapshotViews()
}

// PointerCount 续播指针条数
func (s *Store) PointerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pointers)
}

func (s *Store) snapshotViews() []*model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*model.View, 0, len(s.views))
	for _, v := range s.views {
		cp := *v
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res
}

// WithinViewTx 事务内的写入先落在暂存区，fn 成功后才提交
func (s *Store) WithinViewTx(ctx context.Context, fn func(views repository.ViewStore, pointers repository.WatchPointerStore) error) error {
	tx := &txState{views: map[uuid.UUID]*model.View{}, pointers: map[pointerKey]*model.UserView{}}
	if err := fn(&Views{s: s, tx: tx}, &Pointers{s: s, tx: tx}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range tx.views {
		s.views[id] = v
	}
	for k, p := range tx.pointers {
		s.pointers[k] = p
	}
	return nil
}

type txState struct {
	views    map[uuid.UUID]*model.View
	pointers map[pointerKey]*model.UserView
}

// ==================== Users ====================

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, email, username, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Email == email || existing.Username == username {
			return nil, repository.ErrUserExists
		}
	}
	user := &model.User{ID: uuid.New(), Email: email, Username: username, PasswordHash: string(hash), CreatedAt: time.Now()}
	u.s.users[user.ID] = user
	cp := *user
	return &cp, nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (u *Users) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (u *Users) CheckPassword(user *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// ==================== Videos ====================

type Videos struct{ s *Store }

func (r *Videos) Get(_ context.Context, id uuid.UUID) (*model.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *Videos) Create(_ context.Context, v *model.Video) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.UploadedAt.IsZero() {
		v.UploadedAt = time.Now()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *v
	r.s.videos[v.ID] = &cp
	return nil
}

func (r *Videos) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.videos, id)
	for k := range r.s.pointers {
		if k.video == id {
			delete(r.s.pointers, k)
		}
	}
	for k, v := range r.s.views {
		if v.VideoID == id {
			delete(r.s.views, k)
		}
	}
	for k := range r.s.likes {
		if k.video == id {
			delete(r.s.likes, k)
		}
	}
	for k, c := range r.s.comments {
		if c.VideoID == id {
			delete(r.s.comments, k)
		}
	}
	return nil
}

// 内存实现不做可见范围预过滤，交给业务层逐条校验
func (r *Videos) list(filter func(*model.Video) bool, less func(a, b *model.Video) bool, limit, offset int) []*model.Video {
	r.s.mu.Lock()
	var res []*model.Video
	for _, v := range r.s.videos {
		if filter(v) {
			cp := *v
			res = append(res, &cp)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(res, func(i, j int) bool { return less(res[i], res[j]) })
	return page(res, limit, offset)
}

func byUploadedDesc(a, b *model.Video) bool { return a.UploadedAt.After(b.UploadedAt) }

func (r *Videos) ListLatest(_ context.Context, _ *uuid.UUID, limit, offset int) ([]*model.Video, error) {
	return r.list(func(*model.Video) bool { return true }, byUploadedDesc, limit, offset), nil
}

func (r *Videos) ListByOwner(_ context.Context, ownerID uuid.UUID, _ *uuid.UUID, limit, offset int) ([]*model.Video, error) {
	return r.list(func(v *model.Video) bool { return v.OwnerID == ownerID }, byUploadedDesc, limit, offset), nil
}

func (r *Videos) ListViewedBy(_ context.Context, viewerID uuid.UUID, limit, offset int) ([]*model.Video, error) {
	r.s.mu.Lock()
	watched := make(map[uuid.UUID]time.Time)
	for k, p := range r.s.pointers {
		if k.viewer == viewerID {
			watched[k.video] = p.UpdatedAt
		}
	}
	r.s.mu.Unlock()

	return r.list(
		func(v *model.Video) bool { _, ok := watched[v.ID]; return ok },
		func(a, b *model.Video) bool { return watched[a.ID].After(watched[b.ID]) },
		limit, offset,
	), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ==================== Subscriptions ====================

type Subscriptions struct{ s *Store }

func (r *Subscriptions) IsSubscribed(_ context.Context, viewerID, ownerID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.subs[subKey{viewerID, ownerID}]
	return ok, nil
}

func (r *Subscriptions) Add(_ context.Context, subscriberID, subscribedID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subs[subKey{subscriberID, subscribedID}]; !ok {
		r.s.subs[subKey{subscriberID, subscribedID}] = time.Now()
	}
	return nil
}

func (r *Subscriptions) Remove(_ context.Context, subscriberID, subscribedID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := subKey{subscriberID, subscribedID}
	_, ok := r.s.subs[k]
	delete(r.s.subs, k)
	return ok, nil
}

func (r *Subscriptions) users(match func(subKey) (uuid.UUID, bool)) []*model.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res := []*model.User{}
	for k := range r.s.subs {
		if id, ok := match(k); ok {
			if u, found := r.s.users[id]; found {
				cp := *u
				res = append(res, &cp)
			}
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	return res
}

func (r *Subscriptions) ListSubscribed(_ context.Context, subscriberID uuid.UUID) ([]*model.User, error) {
	return r.users(func(k subKey) (uuid.UUID, bool) { return k.subscribed, k.subscriber == subscriberID }), nil
}

func (r *Subscriptions) ListSubscribers(_ context.Context, subscribedID uuid.UUID) ([]*model.User, error) {
	return r.users(func(k subKey) (uuid.UUID, bool) { return k.subscriber, k.subscribed == subscribedID }), nil
}

// ==================== Views ====================

type Views struct {
	s  *Store
	tx *txState
}

func (r *Views) Insert(_ context.Context, v *model.View) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	cp := *v
	if r.tx != nil {
		r.tx.views[v.ID] = &cp
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.views[v.ID] = &cp
	return nil
}

func (r *Views) Get(_ context.Context, id uuid.UUID) (*model.View, error) {
	if r.tx != nil {
		if v, ok := r.tx.views[id]; ok {
			cp := *v
			return &cp, nil
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.views[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *Views) count(match func(*model.View) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, v := range r.s.views {
		if match(v) {
			n++
		}
	}
	if r.tx != nil {
		for _, v := range r.tx.views {
			if match(v) {
				n++
			}
		}
	}
	return n
}

func (r *Views) CountForVideo(_ context.Context, videoID uuid.UUID) (int64, error) {
	return r.count(func(v *model.View) bool { return v.VideoID == videoID && v.Counted() }), nil
}

func (r *Views) CountForIdentityInWindow(_ context.Context, identity model.ViewIdentity, videoID uuid.UUID, since time.Time) (int64, error) {
	return r.count(func(v *model.View) bool {
		if v.VideoID != videoID || !v.Counted() || !v.CreatedAt.After(since) {
			return false
		}
		if identity.Anonymous() {
			return v.ViewerID == nil && v.Fingerprint != nil && *v.Fingerprint == identity.Fingerprint
		}
		return v.ViewerID != nil && *v.ViewerID == *identity.ViewerID
	}), nil
}

func (r *Views) DeleteUncountedBefore(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	referenced := make(map[uuid.UUID]bool, len(r.s.pointers))
	for _, p := range r.s.pointers {
		referenced[p.ViewID] = true
	}
	var n int64
	for id, v := range r.s.views {
		if !v.Counted() && v.CreatedAt.Before(before) && !referenced[id] {
			delete(r.s.views, id)
			n++
		}
	}
	return n, nil
}

// ==================== Pointers ====================

type Pointers struct {
	s  *Store
	tx *txState
}

func (r *Pointers) Get(_ context.Context, viewerID, videoID uuid.UUID) (*model.UserView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pointers[pointerKey{viewerID, videoID}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *Pointers) Upsert(_ context.Context, p *model.UserView) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailPointerUpsert != nil {
		return r.s.FailPointerUpsert
	}
	cp := *p
	if r.tx != nil {
		r.tx.pointers[pointerKey{p.ViewerID, p.VideoID}] = &cp
		return nil
	}
	r.s.pointers[pointerKey{p.ViewerID, p.VideoID}] = &cp
	return nil
}

func (r *Pointers) Delete(_ context.Context, viewerID, videoID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := pointerKey{viewerID, videoID}
	_, ok := r.s.pointers[k]
	delete(r.s.pointers, k)
	return ok, nil
}

// ==================== Likes ====================

type Likes struct{ s *Store }

func (r *Likes) Get(_ context.Context, userID, videoID uuid.UUID) (*model.Like, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.likes[pointerKey{userID, videoID}]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *Likes) Upsert(_ context.Context, l *model.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	r.s.likes[pointerKey{l.UserID, l.VideoID}] = &cp
	return nil
}

func (r *Likes) Remove(_ context.Context, userID, videoID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := pointerKey{userID, videoID}
	_, ok := r.s.likes[k]
	delete(r.s.likes, k)
	return ok, nil
}

func (r *Likes) Count(_ context.Context, videoID uuid.UUID, status model.LikeStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, l := range r.s.likes {
		if k.video == videoID && l.Status == status {
			n++
		}
	}
	return n, nil
}

// ==================== Comments ====================

type Comments struct{ s *Store }

func (r *Comments) Create(_ context.Context, c *model.Comment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.comments[c.ID] = &cp
	return nil
}

func (r *Comments) Get(_ context.Context, id uuid.UUID) (*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *Comments) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.comments, id)
	return nil
}

func (r *Comments) ListByVideo(_ context.Context, videoID uuid.UUID, limit, offset int) ([]*model.Comment, error) {
	r.s.mu.Lock()
	res := []*model.Comment{}
	for _, c := range r.s.comments {
		if c.VideoID == videoID {
			cp := *c
			res = append(res, &cp)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return page(res, limit, offset), nil
}

var (
	_ repository.UserStore         = (*Users)(nil)
	_ repository.VideoStore        = (*Videos)(nil)
	_ repository.SubscriptionStore = (*Subscriptions)(nil)
	_ repository.ViewStore         = (*Views)(nil)
	_ repository.WatchPointerStore = (*Pointers)(nil)
	_ repository.LikeStore         = (*Likes)(nil)
	_ repository.CommentStore      = (*Comments)(nil)
	_ repository.ViewTxRunner      = (*Store)(nil)
)
