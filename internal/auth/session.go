// Package auth manages the gateway's local session: a signed cookie
// wrapping the upstream session credential and the display identity.
// Authorization itself always stays upstream.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmbarbosa/market-radar/internal/models"
	"github.com/dmbarbosa/market-radar/internal/radar"
)

// SessionCookie is the name of the gateway session cookie.
const SessionCookie = "radar_session"

const sessionTTL = 24 * time.Hour

var (
	ErrInvalidSession = errors.New("invalid or expired session")

	sessionSecretOnce    sync.Once
	sessionSecretRuntime []byte
	sessionSecretErr     error
)

func sessionSecretFromEnv() ([]byte, error) {
	sessionSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
		if secret != "" {
			sessionSecretRuntime = []byte(secret)
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			sessionSecretErr = fmt.Errorf("failed to generate session fallback secret: %w", err)
			return
		}

		sessionSecretRuntime = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("SESSION_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if sessionSecretErr != nil {
		return nil, sessionSecretErr
	}
	if len(sessionSecretRuntime) == 0 {
		return nil, errors.New("session secret unavailable")
	}

	return sessionSecretRuntime, nil
}

// SessionClaims is what the gateway keeps between requests: the display
// identity plus the opaque upstream credential.
type SessionClaims struct {
	Email    string
	Name     string
	Role     string
	Credits  int
	Upstream radar.Session
}

// User rebuilds the display identity from the claims.
func (sc *SessionClaims) User() *models.User {
	return &models.User{
		Email:   sc.Email,
		Name:    sc.Name,
		Role:    sc.Role,
		Credits: sc.Credits,
	}
}

// MintSession signs a session token for a freshly authenticated user.
func MintSession(user *models.User, upstream radar.Session) (string, error) {
	secretKey, err := sessionSecretFromEnv()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.Email,
		"name":     user.Name,
		"role":     user.Role,
		"credits":  user.Credits,
		"upstream": string(upstream),
		"iat":      now.Unix(),
		"exp":      now.Add(sessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseSession validates a session token and extracts its claims.
func ParseSession(tokenString string) (*SessionClaims, error) {
	secretKey, err := sessionSecretFromEnv()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidSession
	}

	sc := &SessionClaims{Email: sub}
	if v, ok := claims["name"].(string); ok {
		sc.Name = v
	}
	if v, ok := claims["role"].(string); ok {
		sc.Role = v
	}
	if v, ok := claims["credits"].(float64); ok {
		sc.Credits = int(v)
	}
	if v, ok := claims["upstream"].(string); ok {
		sc.Upstream = radar.Session(v)
	}
	return sc, nil
}
