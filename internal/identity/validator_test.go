package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserInfoServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCacheKeyIsHashed(t *testing.T) {
	key := CacheKey("secret-token")
	assert.True(t, strings.HasPrefix(key, cacheKeyPrefix))
	assert.NotContains(t, key, "secret-token")
	assert.Equal(t, key, CacheKey("secret-token"))
	assert.NotEqual(t, key, CacheKey("other-token"))
	assert.Len(t, strings.TrimPrefix(key, cacheKeyPrefix), 64)
}

func TestValidateAccessToken_CachesProviderResult(t *testing.T) {
	var calls int32
	srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/userinfo", r.URL.Path)
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"auth0|42","email":"ada@example.com","name":"Ada"}`))
	})

	cache := NewMemoryCache(16, time.Minute)
	v := NewValidator(NewUserInfoProvider(srv.URL, time.Second, 0, 0), cache, time.Minute, logger.Discard())

	info, err := v.ValidateAccessToken(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "auth0|42", info.Subject)
	assert.Equal(t, "ada@example.com", info.Email)

	info, err = v.ValidateAccessToken(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", info.Email)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, ok, err := cache.Get(context.Background(), CacheKey("good-token"))
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, _ = cache.Get(context.Background(), "good-token")
	assert.False(t, ok)
}

func TestValidateAccessToken_ProviderRejection(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"expired"}`))
		})
		cache := NewMemoryCache(16, time.Minute)
		v := NewValidator(NewUserInfoProvider(srv.URL, time.Second, 0, 0), cache, time.Minute, logger.Discard())

		info, err := v.ValidateAccessToken(context.Background(), "bad-token")
		require.Error(t, err)
		assert.Nil(t, info)
		assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
		assert.Equal(t, "Invalid access token", err.Error())

		_, ok, _ := cache.Get(context.Background(), CacheKey("bad-token"))
		assert.False(t, ok, "failures must not be cached")
	}
}

func TestValidateAccessToken_RejectsSuccessWithoutIdentity(t *testing.T) {
	bodies := map[string]string{
		"error body":      `{"error":"invalid_token"}`,
		"missing subject": `{"email":"a@example.com"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})
			cache := NewMemoryCache(16, time.Minute)
			v := NewValidator(NewUserInfoProvider(srv.URL, time.Second, 0, 0), cache, time.Minute, logger.Discard())

			info, err := v.ValidateAccessToken(context.Background(), "odd-token")
			require.Error(t, err)
			assert.Nil(t, info)
			assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

			_, ok, _ := cache.Get(context.Background(), CacheKey("odd-token"))
			assert.False(t, ok)
		})
	}
}

func TestUserInfoProvider_ErrorBodyOnSuccessStatus(t *testing.T) {
	srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"revoked"}`))
	})
	p := NewUserInfoProvider(srv.URL, time.Second, 0, 0)

	_, err := p.UserInfo(context.Background(), "t")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusOK, perr.Status)
	assert.Equal(t, "invalid_token", perr.Code)
	assert.Equal(t, "revoked", perr.Description)
}

func TestValidateAccessToken_ProviderReturnsEmptySubject(t *testing.T) {
	cache := NewMemoryCache(4, time.Minute)
	v := NewValidator(emptyProvider{}, cache, time.Minute, logger.Discard())

	_, err := v.ValidateAccessToken(context.Background(), "tok")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	_, ok, _ := cache.Get(context.Background(), CacheKey("tok"))
	assert.False(t, ok)
}

type emptyProvider struct{}

func (emptyProvider) UserInfo(context.Context, string) (*UserInfo, error) {
	return &UserInfo{Email: "nobody@example.com"}, nil
}

func TestValidateAccessToken_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	v := NewValidator(NewUserInfoProvider(srv.URL, 50*time.Millisecond, 0, 0), NewMemoryCache(4, time.Minute), time.Minute, logger.Discard())
	_, err := v.ValidateAccessToken(context.Background(), "slow-token")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestValidateAccessToken_EmptyToken(t *testing.T) {
	v := NewValidator(&stubProvider{}, NewMemoryCache(4, time.Minute), time.Minute, logger.Discard())
	_, err := v.ValidateAccessToken(context.Background(), "")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

type stubProvider struct {
	calls   int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (p *stubProvider) UserInfo(ctx context.Context, token string) (*UserInfo, error) {
	if atomic.AddInt32(&p.calls, 1) == 1 && p.started != nil {
		close(p.started)
	}
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	return &UserInfo{Subject: "sub-" + token, Email: token + "@example.com"}, nil
}

func TestValidateAccessToken_CoalescesConcurrentMisses(t *testing.T) {
	provider := &stubProvider{started: make(chan struct{}), release: make(chan struct{})}
	v := NewValidator(provider, NewMemoryCache(4, time.Minute), time.Minute, logger.Discard())

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := v.ValidateAccessToken(context.Background(), "shared")
			if err == nil && info.Email != "shared@example.com" {
				err = errors.New("unexpected identity " + info.Email)
			}
			errs <- err
		}()
	}

	<-provider.started
	time.Sleep(100 * time.Millisecond)
	close(provider.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func TestValidateAccessToken_CacheFailureFallsBackToProvider(t *testing.T) {
	provider := &stubProvider{}
	v := NewValidator(provider, failingCache{}, time.Minute, logger.Discard())

	info, err := v.ValidateAccessToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok@example.com", info.Email)
}

func TestMemoryCacheExpires(t *testing.T) {
	cache := NewMemoryCache(4, 20*time.Millisecond)
	require.NoError(t, cache.Set(context.Background(), "k", []byte("v"), time.Hour))
	_, ok, _ := cache.Get(context.Background(), "k")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok, _ = cache.Get(context.Background(), "k")
	assert.False(t, ok)
}

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (f fakeVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseProvider(t *testing.T) {
	p := NewFirebaseProvider(fakeVerifier{token: &auth.Token{
		UID: "fb-uid",
		Claims: map[string]interface{}{
			"email":          "grace@example.com",
			"email_verified": true,
			"name":           "Grace",
		},
	}})
	info, err := p.UserInfo(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "fb-uid", info.Subject)
	assert.Equal(t, "grace@example.com", info.Email)
	assert.True(t, info.EmailVerified)
	assert.Equal(t, "Grace", info.Name)

	_, err = NewFirebaseProvider(fakeVerifier{err: errors.New("expired")}).UserInfo(context.Background(), "x")
	assert.Error(t, err)
}

func TestUserInfoProviderEndpoint(t *testing.T) {
	assert.Equal(t, "https://tenant.auth0.com/userinfo", NewUserInfoProvider("tenant.auth0.com", time.Second, 0, 0).endpoint)
	assert.Equal(t, "http://localhost:9999/userinfo", NewUserInfoProvider("http://localhost:9999/", time.Second, 0, 0).endpoint)
}
