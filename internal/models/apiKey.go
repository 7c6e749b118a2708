package models

import (
	"database/sql"
	"strings"
	"time"
)

type ApiKey struct {
	ID               string         `db:"id"`
	Key              string         `db:"key"`
	Name             string         `db:"name"`
	UserID           string         `db:"user_id"`
	Permissions      string         `db:"permissions"`
	RateLimitPerHour int            `db:"rate_limit_per_hour"`
	RateLimitPerDay  int            `db:"rate_limit_per_day"`
	IpWhitelist      sql.NullString `db:"ip_whitelist"`
	IsActive         bool           `db:"is_active"`
	ExpiresAt        sql.NullTime   `db:"expires_at"`
	LastUsedAt       sql.NullTime   `db:"last_used_at"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (k *ApiKey) IsExpired() bool {
	if !k.ExpiresAt.Valid {
		return false
	}
	return time.Now().After(k.ExpiresAt.Time)
}

// Permissions are stored as a comma-separated list, e.g. "wallet:read,wallet:write"
func (k *ApiKey) HasPermission(permission string) bool {
	for _, p := range strings.Split(k.Permissions, ",") {
		if strings.TrimSpace(p) == permission {
			return true
		}
	}
	return false
}

func (k *ApiKey) AllowsIP(ip string) bool {
	if !k.IpWhitelist.Valid || k.IpWhitelist.String == "" {
		return true
	}
	for _, allowed := range strings.Split(k.IpWhitelist.String, ",") {
		if strings.TrimSpace(allowed) == ip {
			return true
		}
	}
	return false
}

type ApiKeyUsageLog struct {
	ID         string         `db:"id"`
	ApiKeyID   string         `db:"api_key_id"`
	Endpoint   string         `db:"endpoint"`
	Method     string         `db:"method"`
	IpAddress  sql.NullString `db:"ip_address"`
	StatusCode int            `db:"status_code"`
	LoggedAt   time.Time      `db:"logged_at"`
}
