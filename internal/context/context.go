package context

import (
	"context"
	"net/http"

	"github.com/tobiloba/kudiwallet/internal/models"
)

type contextKey string

const (
	authenticatedUserContextKey = contextKey("authenticatedUser")
	apiKeyContextKey            = contextKey("apiKey")
)

func ContextSetAuthenticatedUser(r *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedUserContextKey, user)
	return r.WithContext(ctx)
}

func ContextGetAuthenticatedUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(authenticatedUserContextKey).(*models.User)
	if !ok {
		return nil
	}

	return user
}

func ContextSetApiKey(r *http.Request, key *models.ApiKey) *http.Request {
	ctx := context.WithValue(r.Context(), apiKeyContextKey, key)
	return r.WithContext(ctx)
}

func ContextGetApiKey(r *http.Request) *models.ApiKey {
	key, ok := r.Context().Value(apiKeyContextKey).(*models.ApiKey)
	if !ok {
		return nil
	}

	return key
}
