package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmbarbosa/market-radar/internal/models"
	"github.com/dmbarbosa/market-radar/internal/radar"
)

type contextKey string

const (
	userKey     contextKey = "radar_user"
	upstreamKey contextKey = "radar_upstream"
)

// LoginPath is where unauthenticated visitors are redirected.
const LoginPath = "/login"

// Verifier checks a session credential against the upstream API.
// *radar.Client satisfies it.
type Verifier interface {
	Me(ctx context.Context, session radar.Session) (*models.User, error)
}

// Guard is the session guard middleware: it parses the local session
// cookie, verifies it against the upstream, and attaches the identity to
// the request context. Unauthenticated page requests redirect to the login
// page (never when already there, to avoid a loop); non-page requests get
// 401 JSON. Upstream transport failures are logged and treated as
// unauthenticated rather than crashing the request.
func Guard(verifier Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return rejectUnauthenticated(c)
			}

			claims, err := ParseSession(cookie.Value)
			if err != nil {
				return rejectUnauthenticated(c)
			}

			user, err := verifier.Me(c.Request().Context(), claims.Upstream)
			if err != nil {
				if !errors.Is(err, radar.ErrUnauthenticated) {
					c.Logger().Errorf("session verification failed: %v", err)
				}
				return rejectUnauthenticated(c)
			}

			c.Set(string(userKey), user)
			c.Set(string(upstreamKey), claims.Upstream)
			return next(c)
		}
	}
}

func rejectUnauthenticated(c echo.Context) error {
	if wantsHTML(c) {
		if c.Path() == LoginPath {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return c.Redirect(http.StatusFound, LoginPath)
	}
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
}

func wantsHTML(c echo.Context) bool {
	if c.Request().Method != http.MethodGet {
		return false
	}
	accept := c.Request().Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// CurrentUser retrieves the verified identity from the request context.
func CurrentUser(c echo.Context) (*models.User, error) {
	user, ok := c.Get(string(userKey)).(*models.User)
	if !ok || user == nil {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// UpstreamSession retrieves the upstream credential for proxied actions.
func UpstreamSession(c echo.Context) (radar.Session, error) {
	session, ok := c.Get(string(upstreamKey)).(radar.Session)
	if !ok || session == "" {
		return "", errors.New("upstream session not found in context")
	}
	return session, nil
}
