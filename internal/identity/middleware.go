package identity

import (
	"log/slog"
	"net/http"

	"github.com/civiceye/civiceye/internal/platform/httpx"
)

// RequireAuth resolves the bearer credential once per request and stores the
// principal on the request context. Handlers read it back and pass it as an
// explicit argument into services; nothing downstream re-parses the header.
func RequireAuth(resolver *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if logger != nil {
					logger.Warn("credential rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
