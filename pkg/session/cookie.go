package session

import (
	"net/http"
	"time"
)

// ExpiryCookieName is the cookie that tells page scripts when the session
// ends, without exposing the session itself.
const ExpiryCookieName = "session_expiry"

// ExpiryCookie returns the cookie that records expiresAt. Max-Age is the
// number of whole seconds left at now; an expiry that already passed yields
// the clearing cookie.
func ExpiryCookie(expiresAt, now time.Time) *http.Cookie {
	remaining := int(expiresAt.Sub(now) / time.Second)
	if remaining <= 0 {
		return ClearExpiryCookie()
	}
	return &http.Cookie{
		Name:     ExpiryCookieName,
		Value:    expiresAt.UTC().Format(time.RFC3339Nano),
		Path:     "/",
		MaxAge:   remaining,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearExpiryCookie removes the expiry cookie.
func ClearExpiryCookie() *http.Cookie {
	return &http.Cookie{
		Name:     ExpiryCookieName,
		Value:    "0",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiryFromRequest reads the expiry cookie. ok is false when the cookie is
// missing or malformed.
func ExpiryFromRequest(r *http.Request) (time.Time, bool) {
	cookie, err := r.Cookie(ExpiryCookieName)
	if err != nil {
		return time.Time{}, false
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, cookie.Value)
	if err != nil {
		return time.Time{}, false
	}
	return expiresAt, true
}

// ExpiryCookieValid reports whether the request carries an expiry cookie that
// has not yet passed at now.
func ExpiryCookieValid(r *http.Request, now time.Time) bool {
	expiresAt, ok := ExpiryFromRequest(r)
	return ok && expiresAt.After(now)
}
