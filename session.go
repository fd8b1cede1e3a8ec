package automodeler

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// sessionJar is a cookie jar that can be emptied on logout.
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() *sessionJar {
	j := &sessionJar{}
	j.reset()
	return j
}

// SetCookies implements http.CookieJar.
func (s *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (s *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	return jar.Cookies(u)
}

func (s *sessionJar) reset() {
	// cookiejar.New only fails for a non-nil PublicSuffixList.
	jar, _ := cookiejar.New(nil)
	s.mu.Lock()
	s.jar = jar
	s.mu.Unlock()
}

// SessionCookie is the persisted form of a backend session cookie.
type SessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionCookies returns the cookies the client currently sends to the
// backend. The CLI stores them so a later invocation can resume the session.
func (c *Client) SessionCookies() []SessionCookie {
	cookies := c.jar.Cookies(c.rootURL)
	out := make([]SessionCookie, len(cookies))
	for i, ck := range cookies {
		out[i] = SessionCookie{Name: ck.Name, Value: ck.Value}
	}
	return out
}

// RestoreSession installs previously saved session cookies.
func (c *Client) RestoreSession(cookies []SessionCookie) {
	if len(cookies) == 0 {
		return
	}
	hc := make([]*http.Cookie, len(cookies))
	for i, ck := range cookies {
		hc[i] = &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"}
	}
	c.jar.SetCookies(c.rootURL, hc)
}

// HasSession reports whether the client holds any session cookie.
func (c *Client) HasSession() bool {
	return len(c.jar.Cookies(c.rootURL)) > 0
}

// ClearSession forgets all cookies.
func (c *Client) ClearSession() {
	c.jar.reset()
}
