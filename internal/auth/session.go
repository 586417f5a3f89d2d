package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// Session is the identity handed to whichever component needs it. It is
// created by an explicit Login call and destroyed by Logout; nothing in the
// codebase keeps ambient session state.
type Session struct {
	CustomerID uint
	Email      string
	ExpiresAt  time.Time
}

type sessionClaims struct {
	CustomerID uint   `json:"customer_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue creates a session and its signed token for a logged-in customer.
func (m *Manager) Issue(customerID uint, email string) (string, *Session, error) {
	if len(m.secret) == 0 {
		return "", nil, errors.New("JWT_SECRET is not set")
	}

	expiresAt := time.Now().Add(m.ttl)
	claims := sessionClaims{
		CustomerID: customerID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}

	return signed, &Session{
		CustomerID: customerID,
		Email:      email,
		ExpiresAt:  expiresAt,
	}, nil
}

// Parse verifies a token and rebuilds the session it carries.
func (m *Manager) Parse(tokenStr string) (*Session, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("JWT_SECRET is not set")
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Session{
		CustomerID: claims.CustomerID,
		Email:      claims.Email,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

const cookieName = "access_token"

func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// SetCookie attaches the session token to the response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
}

// ClearCookie ends the session on logout.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
