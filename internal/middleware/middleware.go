package middleware

import (
	stdcontext "context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tobiloba/kudiwallet/internal/config"
	"github.com/tobiloba/kudiwallet/internal/context"
	"github.com/tobiloba/kudiwallet/internal/errHandler"
	"github.com/tobiloba/kudiwallet/internal/helper"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/response"

	"github.com/pascaldekloe/jwt"
	"github.com/tomasen/realip"
)

const (
	// permissions an API key can carry, stored comma-separated
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"
	PermissionPayments    = "payments"

	apiKeyCachePrefix = "apikey:"
	apiKeyCacheTTL    = time.Minute
)

// Cache holds API key rows under a short TTL so the guard does not hit
// the database on every request. Entries for keys that turn out inactive
// or expired are evicted immediately.
type Cache interface {
	Get(ctx stdcontext.Context, key string) (string, bool, error)
	Set(ctx stdcontext.Context, key string, value string, ttl time.Duration) error
	Delete(ctx stdcontext.Context, key string) error
}

type Middleware struct {
	errHandler *errHandler.ErrorHandler
	logger     *slog.Logger
	helper     *helper.HelperRepository
	db         repository.Database
	cache      Cache
	config     *config.Config
}

func New(errHandler *errHandler.ErrorHandler, logger *slog.Logger, help *helper.HelperRepository, db repository.Database, cache Cache, config *config.Config) *Middleware {
	return &Middleware{
		errHandler: errHandler,
		logger:     logger,
		helper:     help,
		db:         db,
		cache:      cache,
		config:     config,
	}
}

func (mid *Middleware) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				mid.errHandler.ServerError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) LogAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
		)

		userAttrs := slog.Group("user", "ip", ip)
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount)

		mid.logger.Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

func (mid *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")

		if authorizationHeader != "" {
			headerParts := strings.Split(authorizationHeader, " ")

			if len(headerParts) == 2 && headerParts[0] == "Bearer" {
				token := headerParts[1]

				claims, err := jwt.HMACCheck([]byte(token), []byte(mid.config.Jwt.SecretKey))
				if err != nil {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.Valid(time.Now()) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if claims.Issuer != mid.config.BaseURL {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.AcceptAudience(mid.config.BaseURL) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				userID := claims.Subject

				user, found, err := mid.db.User().GetOne(userID)
				if err != nil {
					mid.errHandler.ServerError(w, r, err)
					return
				}

				if found {
					r = context.ContextSetAuthenticatedUser(r, user)
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) RequireAuthenticatedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticatedUser := context.ContextGetAuthenticatedUser(r)

		if authenticatedUser == nil {
			mid.errHandler.AuthenticationRequired(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireApiKey admits requests that carry a valid X-API-Key credential
// with the given permission, within the key's hourly and daily quotas.
// Every admitted request is written to the usage log with the final status
// code, which is what the next quota check counts.
func (mid *Middleware) RequireApiKey(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("X-API-Key")
			if rawKey == "" {
				mid.errHandler.InvalidApiKey(w, r)
				return
			}

			apiKey, found, err := mid.lookupApiKey(r.Context(), rawKey)
			if err != nil {
				mid.errHandler.ServerError(w, r, err)
				return
			}
			if !found || !apiKey.IsActive || apiKey.IsExpired() {
				if found {
					// deactivated or expired keys must not linger in the cache
					if err := mid.cache.Delete(r.Context(), apiKeyCachePrefix+rawKey); err != nil {
						mid.logger.Warn("could not evict api key from cache", "error", err)
					}
				}
				mid.errHandler.InvalidApiKey(w, r)
				return
			}

			if !apiKey.HasPermission(permission) {
				mid.errHandler.InvalidApiKey(w, r)
				return
			}

			ip := realip.FromRequest(r)
			if !apiKey.AllowsIP(ip) {
				mid.errHandler.InvalidApiKey(w, r)
				return
			}

			now := time.Now()

			hourCount, err := mid.db.ApiKey().CountUsageSince(apiKey.ID, now.Add(-time.Hour))
			if err != nil {
				mid.errHandler.ServerError(w, r, err)
				return
			}
			if hourCount >= apiKey.RateLimitPerHour {
				mid.errHandler.RateLimitExceeded(w, r, strconv.Itoa(int(time.Hour.Seconds())))
				return
			}

			dayCount, err := mid.db.ApiKey().CountUsageSince(apiKey.ID, now.Add(-24*time.Hour))
			if err != nil {
				mid.errHandler.ServerError(w, r, err)
				return
			}
			if dayCount >= apiKey.RateLimitPerDay {
				mid.errHandler.RateLimitExceeded(w, r, strconv.Itoa(int((24 * time.Hour).Seconds())))
				return
			}

			r = context.ContextSetApiKey(r, apiKey)

			mw := response.NewMetricsResponseWriter(w)
			next.ServeHTTP(mw, r)

			mid.recordUsage(r, apiKey.ID, ip, mw.StatusCode)
		})
	}
}

// lookupApiKey serves the key row from the cache when a fresh copy is
// there, falling back to the database and repopulating on a miss.
func (mid *Middleware) lookupApiKey(ctx stdcontext.Context, rawKey string) (*models.ApiKey, bool, error) {
	cacheKey := apiKeyCachePrefix + rawKey

	if cached, found, err := mid.cache.Get(ctx, cacheKey); err == nil && found {
		var apiKey models.ApiKey
		if err := json.Unmarshal([]byte(cached), &apiKey); err == nil {
			return &apiKey, true, nil
		}
	}

	apiKey, found, err := mid.db.ApiKey().FindByKey(rawKey)
	if err != nil || !found {
		return nil, found, err
	}

	if js, err := json.Marshal(apiKey); err == nil {
		if err := mid.cache.Set(ctx, cacheKey, string(js), apiKeyCacheTTL); err != nil {
			mid.logger.Warn("could not cache api key", "error", err)
		}
	}

	return apiKey, true, nil
}

func (mid *Middleware) recordUsage(r *http.Request, apiKeyID, ip string, statusCode int) {
	endpoint := r.URL.Path
	method := r.Method

	mid.helper.BackgroundTask(nil, func() error {
		err := mid.db.ApiKey().InsertUsageLog(&models.ApiKeyUsageLog{
			ApiKeyID:   apiKeyID,
			Endpoint:   endpoint,
			Method:     method,
			IpAddress:  sql.NullString{String: ip, Valid: ip != ""},
			StatusCode: statusCode,
		})
		if err != nil {
			return err
		}

		return mid.db.ApiKey().UpdateLastUsed(apiKeyID)
	})
}
