package session

import (
	"net/http"
	"time"
)

// HTTPCookies is a CookieJar over one request/response pair. Cookies set
// during the request are visible to later reads on the same jar.
type HTTPCookies struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	pending map[string]*string
}

// NewHTTPCookies creates a jar. secure marks cookies Secure, which the
// gateway does in production.
func NewHTTPCookies(w http.ResponseWriter, r *http.Request, secure bool) *HTTPCookies {
	return &HTTPCookies{w: w, r: r, secure: secure, pending: make(map[string]*string)}
}

func (c *HTTPCookies) Get(name string) (string, bool) {
	if v, ok := c.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	cookie, err := c.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (c *HTTPCookies) Set(name, value string, ttl time.Duration) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: name == TokenCookie,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
	c.pending[name] = &value
}

func (c *HTTPCookies) Delete(name string) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: name == TokenCookie,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
	c.pending[name] = nil
}
