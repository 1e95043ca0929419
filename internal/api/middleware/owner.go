package middleware

import (
	"context"
	"net/http"

	"github.com/corpora-ai/corpora/internal/api"
	"github.com/corpora-ai/corpora/internal/domain"
)

type contextKey string

const (
	OwnerIDKey   contextKey = "owner_id"
	OwnerKindKey contextKey = "owner_kind"
)

// OwnerScope extracts the owner scope from the X-Owner-ID and X-Owner-Kind
// headers and stores it in the request context. Requests without an owner
// are rejected; an absent or unknown kind defaults to workspace.
func OwnerScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Header.Get("X-Owner-ID")
		if ownerID == "" {
			api.Error(w, http.StatusBadRequest, "X-Owner-ID header is required")
			return
		}

		kind := domain.ParseOwnerKind(r.Header.Get("X-Owner-Kind"))

		ctx := context.WithValue(r.Context(), OwnerIDKey, ownerID)
		ctx = context.WithValue(ctx, OwnerKindKey, kind)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOwnerID returns the owner ID from context.
func GetOwnerID(ctx context.Context) string {
	ownerID, _ := ctx.Value(OwnerIDKey).(string)
	return ownerID
}

// GetOwnerKind returns the owner kind from context, defaulting to workspace.
func GetOwnerKind(ctx context.Context) domain.OwnerKind {
	kind, ok := ctx.Value(OwnerKindKey).(domain.OwnerKind)
	if !ok {
		return domain.OwnerKindWorkspace
	}
	return kind
}
