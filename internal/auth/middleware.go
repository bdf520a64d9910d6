package auth

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie holding the session JWT.
const SessionCookie = "token"

// contextKey is an unexported type used for context keys in this package,
// so no other package can read or shadow the values.
type contextKey string

const subjectKey contextKey = "sessionSubject"

// OptionalAuth extracts the session subject if a valid token cookie is
// present, but does NOT block the request if it is missing or invalid.
// Handlers read it with SubjectFromContext.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				if subject, err := tokens.Validate(cookie.Value); err == nil {
					r = r.WithContext(WithSubject(r.Context(), subject))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSubject returns a copy of ctx carrying the session subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFromContext returns the GitHub user id of the session, or
// ("", false) for a request without a valid session cookie.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}

// SetSessionCookie writes the session token as an HttpOnly cookie.
// HttpOnly keeps the token away from page scripts.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, tokens *TokenService) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
