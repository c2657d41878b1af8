package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/user/tubeview/internal/config"
	"github.com/user/tubeview/internal/memstore"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/utils"
)

// stubVisits 可控的访问历史服务
type stubVisits struct {
	mu     sync.Mutex
	visits []Visit
	err    error
	calls  int
}

func (s *stubVisits) GetRecentVisits(_ context.Context, _ string) ([]Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.visits, s.err
}

func (s *stubVisits) set(visits []Visit, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits, s.err = visits, err
}

func (s *stubVisits) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func visitAt(ts time.Time, score float64) Visit {
	v := Visit{RequestID: uuid.NewString(), Timestamp: ts.UnixMilli()}
	v.Confidence.Score = score
	return v
}

func testViewConfig() config.ViewConfig {
	return config.ViewConfig{
		DailyLimit:         config.DefaultDailyViewLimit,
		QuotaWindow:        24 * time.Hour,
		MinCountedViewing:  config.DefaultMinCountedSeconds * time.Second,
		RecentVisitWindow:  3 * time.Hour,
		MinConfidence:      0.94,
		AuditRetentionDays: config.DefaultAuditRetentionDays,
	}
}

type testEnv struct {
	store  *memstore.Store
	visits *stubVisits
	counts *utils.MemoryCountCache

	views  *ViewService
	videos *VideoService
	inter  *InteractionService
	users  *UserService

	owner uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	visits := &stubVisits{visits: []Visit{visitAt(time.Now().Add(-time.Minute), 0.99)}}
	counts := utils.NewMemoryCountCache(time.Minute)

	catalog := NewVideoCatalog(store.Videos(), 100, time.Minute)
	oracle := NewSubscriptionOracle(store.Subscriptions())
	views := NewViewService(ViewServiceDeps{
		Catalog:  catalog,
		Oracle:   oracle,
		Views:    store.Views(),
		Pointers: store.Pointers(),
		Tx:       store,
		Fraud:    NewFraudChecker(visits, testViewConfig(), time.Second),
		Counts:   counts,
		Config:   testViewConfig(),
	})

	users := NewUserService(store.Users(), store.Subscriptions())
	owner, err := users.Register(context.Background(), "owner@example.com", "owner", "password123")
	require.NoError(t, err)

	return &testEnv{
		store:  store,
		visits: visits,
		counts: counts,
		views:  views,
		videos: NewVideoService(catalog, oracle, store.Videos(), store.Likes(), views),
		inter:  NewInteractionService(views, store.Likes(), store.Comments()),
		users:  users,
		owner:  owner.ID,
	}
}

func (e *testEnv) video(t *testing.T, tier model.VisibilityTier, duration time.Duration) *model.Video {
	t.Helper()
	return e.store.AddVideo(&model.Video{
		OwnerID:    e.owner,
		Title:      "video " + string(tier),
		Duration:   duration,
		Visibility: tier,
	})
}

func (e *testEnv) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u, err := e.users.Register(context.Background(), name+"@example.com", name, "password123")
	require.NoError(t, err)
	return u.ID
}

func report(videoID uuid.UUID, fp string, stop, viewing time.Duration) ViewReport {
	return ViewReport{VideoID: videoID, Fingerprint: fp, StopTimecode: stop, ViewingTime: viewing}
}
