package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

func TestMemoryVerificationStoreOverwrite(t *testing.T) {
	store := NewMemoryVerificationStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "Kim@School.kr", "AAAAAAA", 0))
	require.NoError(t, store.Save(ctx, "kim@school.kr", "BBBBBBB", 0))

	code, err := store.Get(ctx, "kim@school.kr")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBB", code)
}

func TestMemoryVerificationStoreExpiry(t *testing.T) {
	store := NewMemoryVerificationStore()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a@b.c", "Code123", time.Minute))
	now = now.Add(59 * time.Second)
	_, err := store.Get(ctx, "a@b.c")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Get(ctx, "a@b.c")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryVerificationStoreDelete(t *testing.T) {
	store := NewMemoryVerificationStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a@b.c", "Code123", 0))
	require.NoError(t, store.Delete(ctx, "a@b.c"))
	_, err := store.Get(ctx, "a@b.c")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryVerificationStoreConcurrent(t *testing.T) {
	store := NewMemoryVerificationStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Save(ctx, "a@b.c", "Code123", time.Minute)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, "a@b.c")
		}()
	}
	wg.Wait()

	code, err := store.Get(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Code123", code)
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	var dest map[string]string

	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "k*"))
}

func TestVerificationRepositoryRedis(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewVerificationRepository(client)
	ctx := context.Background()
	key := "afterschool:verification:kim@school.kr"

	mock.ExpectSet(key, "AbC1234", 10*time.Minute).SetVal("OK")
	require.NoError(t, repo.Save(ctx, " Kim@School.kr ", "AbC1234", 10*time.Minute))

	mock.ExpectGet(key).SetVal("AbC1234")
	code, err := repo.Get(ctx, "kim@school.kr")
	require.NoError(t, err)
	assert.Equal(t, "AbC1234", code)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, repo.Delete(ctx, "KIM@school.kr"))

	mock.ExpectGet(key).RedisNil()
	_, err = repo.Get(ctx, "kim@school.kr")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryRedisFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewVerificationRepository(client)

	mock.ExpectGet("afterschool:verification:a@b.c").SetErr(errors.New("connection refused"))
	_, err := repo.Get(context.Background(), "a@b.c")
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	require.NoError(t, mock.ExpectationsWereMet())
}
