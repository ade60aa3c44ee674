package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const SessionCookie = "ff_session"

// Sessions hands out the cookie that ties a browser to its stored state.
type Sessions struct {
	ttl    time.Duration
	secure bool
}

func NewSessions(ttl time.Duration, secure bool) *Sessions {
	return &Sessions{ttl: ttl, secure: secure}
}

// ID returns the caller's session id, issuing a new one when the cookie is
// missing or not a uuid. The id is cached on the context for the request.
func (s *Sessions) ID(c echo.Context) string {
	if id, ok := c.Get(SessionCookie).(string); ok {
		return id
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			c.Set(SessionCookie, cookie.Value)
			s.refresh(c, cookie.Value)
			return cookie.Value
		}
	}

	id := uuid.NewString()
	c.Set(SessionCookie, id)
	s.refresh(c, id)
	return id
}

func (s *Sessions) refresh(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
