package middleware

import (
	"net/http"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/views"
)

// Flash messages shown when a gate refuses a request.
const (
	MsgLogInFirst = "Log in first!"
	MsgNoRights   = "You don't have the rights to do that!"
)

// AuthMiddleware returns HTTP middleware that resolves the auth_token cookie into an
// auth.Principal and stores it in the request context.
//
// The middleware:
//   - Treats a missing cookie as an anonymous visitor
//   - Expires a cookie that fails verification and continues anonymously
//   - Never refuses a request; gating is left to RequireAuth and RequireAdmin
func AuthMiddleware(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.Anonymous

			if cookie, err := r.Cookie(auth.CookieName); err == nil {
				p, err := tokens.Parse(cookie.Value)
				if err != nil {
					ClearSessionCookie(w)
				} else {
					principal = p
				}
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth sends anonymous visitors to the login page.
func RequireAuth(view *views.View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.PrincipalFrom(r.Context()).IsAuthenticated() {
				view.Redirect(w, r, "/auth/login", views.Danger(MsgLogInFirst))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin sends everyone but administrators back to the index.
func RequireAdmin(view *views.View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.PrincipalFrom(r.Context()).IsAdmin() {
				view.Redirect(w, r, "/", views.Danger(MsgNoRights))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie stores a signed session token valid for tokens.TTL().
func SetSessionCookie(w http.ResponseWriter, tokens *auth.Tokens, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(tokens.TTL().Seconds()),
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
