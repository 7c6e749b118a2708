package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tobiloba/kudiwallet/internal/config"
	"github.com/tobiloba/kudiwallet/internal/errHandler"
	"github.com/tobiloba/kudiwallet/internal/helper"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockApiKeyRepo struct{ mock.Mock }

func (m *mockApiKeyRepo) Insert(key *models.ApiKey, tx *sqlx.Tx) (*models.ApiKey, error) {
	args := m.Called(key, tx)
	created, _ := args.Get(0).(*models.ApiKey)
	return created, args.Error(1)
}

func (m *mockApiKeyRepo) FindByKey(key string) (*models.ApiKey, bool, error) {
	args := m.Called(key)
	apiKey, _ := args.Get(0).(*models.ApiKey)
	return apiKey, args.Bool(1), args.Error(2)
}

func (m *mockApiKeyRepo) CountUsageSince(apiKeyID string, since time.Time) (int, error) {
	args := m.Called(apiKeyID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockApiKeyRepo) InsertUsageLog(log *models.ApiKeyUsageLog) error {
	args := m.Called(log)
	return args.Error(0)
}

func (m *mockApiKeyRepo) UpdateLastUsed(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type stubDatabase struct {
	repository.Database

	apiKeys *mockApiKeyRepo
}

func (s *stubDatabase) ApiKey() repository.ApiKeyRepository { return s.apiKeys }

type noopMailer struct{}

func (noopMailer) Send(recipient string, data any, patterns ...string) error { return nil }

type stubCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string]string{}}
}

func (c *stubCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, found := c.values[key]
	return value, found, nil
}

func (c *stubCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func newGuardedHandler(db *stubDatabase, cache *stubCache, wg *sync.WaitGroup) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	baseURL := "http://localhost:4444"
	help := helper.New(&baseURL, wg)
	errs := errHandler.New("", noopMailer{}, logger, help)
	help.SetReporter(errs)

	mid := New(errs, logger, help, db, cache, &config.Config{BaseURL: baseURL})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mid.RequireApiKey(PermissionPayments)(next)
}

func activeKey() *models.ApiKey {
	return &models.ApiKey{
		ID:               "key-1",
		Key:              "kw_live_abc",
		Permissions:      "wallet:read,payments",
		RateLimitPerHour: 100,
		RateLimitPerDay:  1000,
		IsActive:         true,
	}
}

func TestRequireApiKeyMissingHeader(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	var wg sync.WaitGroup
	h := newGuardedHandler(db, newStubCache(), &wg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	db.apiKeys.AssertNotCalled(t, "FindByKey", mock.Anything)
}

func TestRequireApiKeyUnknownOrInactive(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	db.apiKeys.On("FindByKey", "kw_live_unknown").Return(nil, false, nil)

	inactive := activeKey()
	inactive.IsActive = false
	db.apiKeys.On("FindByKey", "kw_live_inactive").Return(inactive, true, nil)

	expired := activeKey()
	expired.ExpiresAt.Valid = true
	expired.ExpiresAt.Time = time.Now().Add(-time.Hour)
	db.apiKeys.On("FindByKey", "kw_live_expired").Return(expired, true, nil)

	var wg sync.WaitGroup
	h := newGuardedHandler(db, newStubCache(), &wg)

	for _, key := range []string{"kw_live_unknown", "kw_live_inactive", "kw_live_expired"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, key)
	}

	db.apiKeys.AssertNotCalled(t, "CountUsageSince", mock.Anything, mock.Anything)
}

func TestRequireApiKeyMissingPermission(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	key := activeKey()
	key.Permissions = "wallet:read"
	db.apiKeys.On("FindByKey", "kw_live_abc").Return(key, true, nil)

	var wg sync.WaitGroup
	h := newGuardedHandler(db, newStubCache(), &wg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	req.Header.Set("X-API-Key", "kw_live_abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireApiKeyHourlyQuotaExceeded(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	key := activeKey()
	db.apiKeys.On("FindByKey", "kw_live_abc").Return(key, true, nil)

	// first CountUsageSince call is the hourly window
	db.apiKeys.On("CountUsageSince", "key-1", mock.AnythingOfType("time.Time")).
		Return(key.RateLimitPerHour, nil).
		Once()

	var wg sync.WaitGroup
	h := newGuardedHandler(db, newStubCache(), &wg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	req.Header.Set("X-API-Key", "kw_live_abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "3600", rec.Header().Get("Retry-After"))
	db.apiKeys.AssertNotCalled(t, "InsertUsageLog", mock.Anything)
}

func TestRequireApiKeyDailyQuotaExceeded(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	key := activeKey()
	db.apiKeys.On("FindByKey", "kw_live_abc").Return(key, true, nil)

	// hourly window is fine, daily window is exhausted
	db.apiKeys.On("CountUsageSince", "key-1", mock.AnythingOfType("time.Time")).
		Return(10, nil).
		Once()
	db.apiKeys.On("CountUsageSince", "key-1", mock.AnythingOfType("time.Time")).
		Return(key.RateLimitPerDay, nil).
		Once()

	var wg sync.WaitGroup
	h := newGuardedHandler(db, newStubCache(), &wg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	req.Header.Set("X-API-Key", "kw_live_abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "86400", rec.Header().Get("Retry-After"))
}

func TestRequireApiKeyAdmitsAndLogsUsage(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	key := activeKey()
	db.apiKeys.On("FindByKey", "kw_live_abc").Return(key, true, nil)
	db.apiKeys.On("CountUsageSince", "key-1", mock.AnythingOfType("time.Time")).Return(1, nil)

	var logged *models.ApiKeyUsageLog
	db.apiKeys.On("InsertUsageLog", mock.AnythingOfType("*models.ApiKeyUsageLog")).
		Run(func(args mock.Arguments) { logged = args.Get(0).(*models.ApiKeyUsageLog) }).
		Return(nil)
	db.apiKeys.On("UpdateLastUsed", "key-1").Return(nil)

	var wg sync.WaitGroup
	h := newGuardedHandler(db, newStubCache(), &wg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	req.Header.Set("X-API-Key", "kw_live_abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// the usage log is written on a background goroutine
	wg.Wait()

	require.NotNil(t, logged)
	require.Equal(t, "key-1", logged.ApiKeyID)
	require.Equal(t, "/api/v1/payments", logged.Endpoint)
	require.Equal(t, http.MethodPost, logged.Method)
	require.Equal(t, http.StatusOK, logged.StatusCode)
}

func TestRequireApiKeyIPWhitelist(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	key := activeKey()
	key.IpWhitelist.Valid = true
	key.IpWhitelist.String = "10.0.0.1"
	db.apiKeys.On("FindByKey", "kw_live_abc").Return(key, true, nil)

	var wg sync.WaitGroup
	h := newGuardedHandler(db, newStubCache(), &wg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	req.Header.Set("X-API-Key", "kw_live_abc")
	req.RemoteAddr = "192.168.1.50:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireApiKeyCachesLookup(t *testing.T) {
	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	key := activeKey()
	db.apiKeys.On("FindByKey", "kw_live_abc").Return(key, true, nil).Once()
	db.apiKeys.On("CountUsageSince", "key-1", mock.AnythingOfType("time.Time")).Return(1, nil)
	db.apiKeys.On("InsertUsageLog", mock.AnythingOfType("*models.ApiKeyUsageLog")).Return(nil)
	db.apiKeys.On("UpdateLastUsed", "key-1").Return(nil)

	var wg sync.WaitGroup
	cache := newStubCache()
	h := newGuardedHandler(db, cache, &wg)

	// second request is served from the cached key row
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
		req.Header.Set("X-API-Key", "kw_live_abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	}

	wg.Wait()

	db.apiKeys.AssertNumberOfCalls(t, "FindByKey", 1)
}

func TestRequireApiKeyEvictsDeactivatedCachedKey(t *testing.T) {
	key := activeKey()
	key.IsActive = false

	js, err := json.Marshal(key)
	require.NoError(t, err)

	cache := newStubCache()
	require.NoError(t, cache.Set(context.Background(), "apikey:"+key.Key, string(js), time.Minute))

	db := &stubDatabase{apiKeys: &mockApiKeyRepo{}}
	var wg sync.WaitGroup
	h := newGuardedHandler(db, cache, &wg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	req.Header.Set("X-API-Key", key.Key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	_, found, err := cache.Get(context.Background(), "apikey:"+key.Key)
	require.NoError(t, err)
	require.False(t, found)
}
