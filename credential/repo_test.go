package credential_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/oa-client/credential"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/token"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	raw, err := token.NewHMACSigner("secret").Sign(token.NewClaims("E001", "Zhang San", "user", ttl))
	require.NoError(t, err)
	return raw
}

// storeContract runs the behaviour every backend must share.
func storeContract(t *testing.T, store credential.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, oaerrors.ErrNoCredential)

	require.Error(t, store.Set(ctx, "   "))

	first := signedToken(t, time.Hour)
	require.NoError(t, store.Set(ctx, first))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, first, got)

	second := signedToken(t, 2*time.Hour)
	require.NoError(t, store.Set(ctx, second))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, second, got)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	_, err = store.Get(ctx)
	require.ErrorIs(t, err, oaerrors.ErrNoCredential)
}

func TestInMemoryStore(t *testing.T) {
	storeContract(t, credential.NewInMemoryStore())
}

func TestInMemoryStoreConcurrentAccess(t *testing.T) {
	store := credential.NewInMemoryStore()
	ctx := context.Background()
	raw := signedToken(t, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, raw)
			_, _ = store.Get(ctx)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	storeContract(t, credential.NewFileStore(path, ""))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStorePlainTextLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := credential.NewFileStore(path, "")
	raw := signedToken(t, time.Hour)
	require.NoError(t, store.Set(context.Background(), raw))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"oa_token"`)
	require.Contains(t, string(data), raw)

	// A second instance sees the same credential
	got, err := credential.NewFileStore(path, "").Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestFileStoreSealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	storeContract(t, credential.NewFileStore(path, "correct horse"))

	ctx := context.Background()
	raw := signedToken(t, time.Hour)
	require.NoError(t, credential.NewFileStore(path, "correct horse").Set(ctx, raw))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), raw)
	require.True(t, strings.Contains(string(data), "sealed:"))

	got, err := credential.NewFileStore(path, "correct horse").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, raw, got)

	_, err = credential.NewFileStore(path, "wrong").Get(ctx)
	require.ErrorIs(t, err, oaerrors.ErrInvalidToken)

	_, err = credential.NewFileStore(path, "").Get(ctx)
	require.ErrorIs(t, err, oaerrors.ErrInvalidToken)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := credential.NewFileStore(path, "").Get(context.Background())
	require.Error(t, err)
}

func setupRedisStore(t *testing.T) (*credential.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)

	store, err := credential.NewRedisStore(context.Background(), credential.RedisOptions{
		Addr:      mr.Addr(),
		Namespace: "kiosk-1",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore(t *testing.T) {
	store, _ := setupRedisStore(t)
	storeContract(t, store)
}

func TestRedisStoreKeyAndExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	raw := signedToken(t, time.Hour)
	require.NoError(t, store.Set(ctx, raw))

	value, err := mr.Get("kiosk-1:oa_token")
	require.NoError(t, err)
	assert.Equal(t, raw, value)
	assert.Greater(t, mr.TTL("kiosk-1:oa_token"), 59*time.Minute)

	mr.FastForward(61 * time.Minute)
	_, err = store.Get(ctx)
	require.ErrorIs(t, err, oaerrors.ErrNoCredential)
}

func TestRedisStoreOpaqueTokenHasNoTTL(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, store.Set(context.Background(), "opaque-token"))
	assert.Equal(t, time.Duration(0), mr.TTL("kiosk-1:oa_token"))
}

func TestRedisStoreSharedBetweenClients(t *testing.T) {
	store, mr := setupRedisStore(t)
	raw := signedToken(t, time.Hour)
	require.NoError(t, store.Set(context.Background(), raw))

	other := credential.NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "kiosk-1:")
	got, err := other.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestNewRedisStoreConnectionFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = credential.NewRedisStore(context.Background(), credential.RedisOptions{Addr: addr})
	require.Error(t, err)
}
