package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/user/tubeview/internal/model"
)

func startPostgres(ctx context.Context, t *testing.T) *Repositories {
	t.Helper()
	if testing.Short() {
		t.Skip("skip integration: -short")
	}

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "tubeview",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://postgres:postgres@%s:%s/tubeview?sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skip integration: cannot start postgres container: %v", err)
	}
	t.Cleanup(func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(termCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := InitDB(fmt.Sprintf("postgres://postgres:postgres@%s:%s/tubeview?sslmode=disable", host, port.Port()), false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return NewRepositories(db)
}

func TestRepositories_Postgres(t *testing.T) {
	ctx := context.Background()
	repos := startPostgres(ctx, t)

	owner, err := repos.User.Create(ctx, "owner@example.com", "owner", "password123")
	require.NoError(t, err)
	viewer, err := repos.User.Create(ctx, "viewer@example.com", "viewer", "password123")
	require.NoError(t, err)
	_, err = repos.User.Create(ctx, "owner@example.com", "owner2", "password123")
	assert.ErrorIs(t, err, ErrUserExists)

	found, err := repos.User.FindByEmail(ctx, "viewer@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, repos.User.CheckPassword(found, "password123"))

	public := &model.Video{OwnerID: owner.ID, Title: "public", Duration: time.Minute, Visibility: model.TierEveryone}
	subsOnly := &model.Video{OwnerID: owner.ID, Title: "subs", Duration: time.Minute, Visibility: model.TierSubscribers}
	require.NoError(t, repos.Video.Create(ctx, public))
	require.NoError(t, repos.Video.Create(ctx, subsOnly))

	t.Run("visibility scope", func(t *testing.T) {
		anon, err := repos.Video.ListLatest(ctx, nil, 10, 0)
		require.NoError(t, err)
		assert.Len(t, anon, 1)

		vid := viewer.ID
		before, err := repos.Video.ListByOwner(ctx, owner.ID, &vid, 10, 0)
		require.NoError(t, err)
		assert.Len(t, before, 1)

		require.NoError(t, repos.Subscription.Add(ctx, viewer.ID, owner.ID))
		require.NoError(t, repos.Subscription.Add(ctx, viewer.ID, owner.ID))
		ok, err := repos.Subscription.IsSubscribed(ctx, viewer.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		after, err := repos.Video.ListByOwner(ctx, owner.ID, &vid, 10, 0)
		require.NoError(t, err)
		assert.Len(t, after, 2)
	})

	t.Run("views and pointers", func(t *testing.T) {
		fp := "fp-1"
		counted := 20 * time.Second
		var lastID uuid.UUID
		for i := 0; i < 3; i++ {
			view := &model.View{VideoID: public.ID, ViewerID: &viewer.ID, Fingerprint: &fp, StopTimecode: time.Duration(i) * time.Second, ViewingTime: &counted}
			err := repos.WithinViewTx(ctx, func(views ViewStore, pointers WatchPointerStore) error {
				if err := views.Insert(ctx, view); err != nil {
					return err
				}
				return pointers.Upsert(ctx, &model.UserView{ViewerID: viewer.ID, VideoID: public.ID, ViewID: view.ID, UpdatedAt: time.Now()})
			})
			require.NoError(t, err)
			lastID = view.ID
		}

		p, err := repos.UserView.Get(ctx, viewer.ID, public.ID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, lastID, p.ViewID)

		n, err := repos.View.CountForVideo(ctx, public.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		n, err = repos.View.CountForIdentityInWindow(ctx, model.ViewIdentity{ViewerID: &viewer.ID}, public.ID, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		// 匿名键只匹配没有 viewer_id 的记录
		n, err = repos.View.CountForIdentityInWindow(ctx, model.ViewIdentity{Fingerprint: fp}, public.ID, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		viewed, err := repos.Video.ListViewedBy(ctx, viewer.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, viewed, 1)
		assert.Equal(t, public.ID, viewed[0].ID)

		deleted, err := repos.UserView.Delete(ctx, viewer.ID, public.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = repos.UserView.Delete(ctx, viewer.ID, public.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		n, err = repos.View.CountForVideo(ctx, public.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n, "删除指针不影响观看记录")
	})

	t.Run("transaction rollback", func(t *testing.T) {
		boom := errors.New("boom")
		view := &model.View{VideoID: subsOnly.ID}
		err := repos.WithinViewTx(ctx, func(views ViewStore, pointers WatchPointerStore) error {
			if err := views.Insert(ctx, view); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := repos.View.Get(ctx, view.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("retention cleanup", func(t *testing.T) {
		old := time.Now().Add(-40 * 24 * time.Hour)
		stale := &model.View{VideoID: subsOnly.ID, CreatedAt: old}
		require.NoError(t, repos.View.Insert(ctx, stale))

		n, err := repos.View.DeleteUncountedBefore(ctx, time.Now().Add(-30*24*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("likes and comments", func(t *testing.T) {
		require.NoError(t, repos.Like.Upsert(ctx, &model.Like{UserID: viewer.ID, VideoID: public.ID, Status: model.LikeStatusLike, UpdatedAt: time.Now()}))
		require.NoError(t, repos.Like.Upsert(ctx, &model.Like{UserID: viewer.ID, VideoID: public.ID, Status: model.LikeStatusDislike, UpdatedAt: time.Now()}))
		n, err := repos.Like.Count(ctx, public.ID, model.LikeStatusDislike)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		c := &model.Comment{VideoID: public.ID, AuthorID: viewer.ID, Text: "hi", CreatedAt: time.Now()}
		require.NoError(t, repos.Comment.Create(ctx, c))
		list, err := repos.Comment.ListByVideo(ctx, public.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, repos.Video.Delete(ctx, public.ID))
		got, err := repos.Video.Get(ctx, public.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		n, err = repos.View.CountForVideo(ctx, public.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
