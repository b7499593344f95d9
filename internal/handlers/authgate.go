package handlers

import (
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
)

// accessTokenCookie and refreshTokenCookie name the credentials persisted
// on the client. The cookie takes precedence over the Authorization header.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// authGate guards protected routes: it extracts the bearer credential,
// verifies it, resolves the acting user and attaches the identity to the
// request context. It is a gate, not a query.
type authGate struct {
	tokens TokenService
	users  UserStore
}

// require rejects the request with a 401 envelope unless a valid access
// credential resolves to an existing user.
func (g authGate) require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := bearerToken(r)
		if token == "" {
			respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := g.tokens.Verify(token, auth.KindAccess)
		if err != nil {
			respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := g.users.FindByID(ctx, claims.Subject)
		if err != nil {
			logging.FromContext(ctx).Warn("access token for unknown user", "userId", claims.Subject)
			respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r.WithContext(auth.WithUser(ctx, user.Sanitize())))
	}
}

// optional attaches the identity when a valid credential is present and
// lets anonymous requests through untouched.
func (g authGate) optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := bearerToken(r)
		if token == "" {
			next(w, r)
			return
		}

		claims, err := g.tokens.Verify(token, auth.KindAccess)
		if err != nil {
			next(w, r)
			return
		}

		user, err := g.users.FindByID(ctx, claims.Subject)
		if err != nil {
			next(w, r)
			return
		}

		next(w, r.WithContext(auth.WithUser(ctx, user.Sanitize())))
	}
}

// bearerToken pulls the access credential from the accessToken cookie,
// falling back to an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
