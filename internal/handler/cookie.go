package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookieName = "pl_session"

// SessionCookie signs and verifies the browser cookie that names a stored
// session. The cookie carries only the session ID inside an HS256 JWT; the
// token pair itself never leaves the server.
type SessionCookie struct {
	secret []byte
	secure bool
	maxAge time.Duration
}

// NewSessionCookie creates a codec for the session cookie.
func NewSessionCookie(secret string, secure bool) *SessionCookie {
	return &SessionCookie{
		secret: []byte(secret),
		secure: secure,
		maxAge: 30 * 24 * time.Hour,
	}
}

// Issue sets the session cookie for the given session ID.
func (c *SessionCookie) Issue(w http.ResponseWriter, sessionID string) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(c.maxAge).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.maxAge.Seconds()),
	})
	return nil
}

// Read returns the session ID named by the request's cookie, or "" when no
// valid cookie is present.
func (c *SessionCookie) Read(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// Clear expires the session cookie.
func (c *SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
