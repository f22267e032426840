// Package api is the HTTP surface of the dashboard gateway: server-rendered
// pages over the shared snapshot, plus the proxied actions (login, save,
// refresh, CSV export) that talk to the upstream on the user's behalf.
package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmbarbosa/market-radar/internal/auth"
	"github.com/dmbarbosa/market-radar/internal/radar"
	"github.com/dmbarbosa/market-radar/internal/refresh"
	"github.com/dmbarbosa/market-radar/internal/render"
	"github.com/dmbarbosa/market-radar/internal/view"
)

type Server struct {
	Echo      *echo.Echo
	Client    *radar.Client
	Store     *view.Store
	Renderer  *render.Renderer
	Refresher *refresh.Refresher
}

func NewServer(client *radar.Client, store *view.Store, renderer *render.Renderer, refresher *refresh.Refresher) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		Echo:      e,
		Client:    client,
		Store:     store,
		Renderer:  renderer,
		Refresher: refresher,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/healthz", s.handleHealth)
	s.Echo.GET("/static/*", echo.WrapHandler(http.FileServer(http.FS(render.StaticFS()))))

	// Public auth surface
	s.Echo.GET(auth.LoginPath, s.handleLoginPage)
	s.Echo.POST(auth.LoginPath, s.handleLogin)
	s.Echo.POST("/logout", s.handleLogout)

	// Everything the dashboard shows requires a verified session.
	guarded := s.Echo.Group("")
	guarded.Use(auth.Guard(s.Client))
	guarded.GET("/", s.handleDashboard)
	guarded.GET("/products", s.handleProducts)
	guarded.GET("/saved", s.handleSaved)
	guarded.GET("/detail/:id", s.handleDetail)
	guarded.GET("/export.csv", s.handleExportCSV)
	guarded.POST("/save/:id", s.handleSave)
	guarded.POST("/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// renderHTML buffers the template output so a render failure can still
// produce a clean 500 instead of a torn page.
func renderHTML(c echo.Context, status int, fn func(w *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		c.Logger().Errorf("template render failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// parseFilters reads the filter/search/sort selection from the query
// string. Unknown sort keys fall back to the score ordering.
func parseFilters(c echo.Context) view.Filters {
	f := view.Filters{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("q"),
		Sort:     c.QueryParam("sort"),
	}
	if f.Category == "" {
		f.Category = view.CategoryAll
	}
	if f.Sort != view.SortValidation {
		f.Sort = view.SortScore
	}
	return f
}

func (s *Server) handleLoginPage(c echo.Context) error {
	return renderHTML(c, http.StatusOK, func(w *bytes.Buffer) error {
		return s.Renderer.Login(w, render.LoginData{})
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")
	if email == "" || password == "" {
		return renderHTML(c, http.StatusBadRequest, func(w *bytes.Buffer) error {
			return s.Renderer.Login(w, render.LoginData{Error: "Informe email e senha."})
		})
	}

	user, upstream, err := s.Client.Login(c.Request().Context(), email, password)
	if err != nil {
		if errors.Is(err, radar.ErrInvalidCredentials) {
			return renderHTML(c, http.StatusUnauthorized, func(w *bytes.Buffer) error {
				return s.Renderer.Login(w, render.LoginData{Error: "Credenciais inválidas."})
			})
		}
		c.Logger().Errorf("upstream login failed: %v", err)
		return renderHTML(c, http.StatusBadGateway, func(w *bytes.Buffer) error {
			return s.Renderer.Login(w, render.LoginData{Error: "Servidor indisponível. Tente novamente."})
		})
	}

	token, err := auth.MintSession(user, upstream)
	if err != nil {
		c.Logger().Errorf("failed to mint session: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLogout(c echo.Context) error {
	// Upstream logout is best-effort: the local cookie is cleared either way.
	if cookie, err := c.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
		if claims, err := auth.ParseSession(cookie.Value); err == nil {
			if err := s.Client.Logout(c.Request().Context(), claims.Upstream); err != nil {
				c.Logger().Errorf("upstream logout failed: %v", err)
			}
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return c.Redirect(http.StatusSeeOther, auth.LoginPath)
}

func (s *Server) handleDashboard(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	filters := parseFilters(c)
	snap := s.Store.Snapshot()

	data := render.DashboardData{
		User:       user,
		Stats:      snap.Stats,
		Categories: snap.Categories,
		Filters:    filters,
		Cards:      s.Renderer.BuildCards(filters.Apply(snap.Opportunities)),
		Loading:    s.Store.Empty(),
	}
	if snap.Err != nil {
		data.FetchErr = snap.Err.Error()
	}

	return renderHTML(c, http.StatusOK, func(w *bytes.Buffer) error {
		return s.Renderer.Dashboard(w, data)
	})
}

func (s *Server) handleProducts(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	data := render.ProductsData{User: user}
	products, err := s.Client.Products(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("products fetch failed: %v", err)
		data.FetchErr = err.Error()
	} else {
		data.Products = products
	}

	return renderHTML(c, http.StatusOK, func(w *bytes.Buffer) error {
		return s.Renderer.Products(w, data)
	})
}

func (s *Server) handleSaved(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	session, err := auth.UpstreamSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	data := render.SavedData{User: user}
	saved, err := s.Client.Saved(c.Request().Context(), session)
	if err != nil {
		c.Logger().Errorf("saved fetch failed: %v", err)
		data.FetchErr = err.Error()
	} else {
		data.Cards = s.Renderer.BuildCards(saved)
	}

	return renderHTML(c, http.StatusOK, func(w *bytes.Buffer) error {
		return s.Renderer.Saved(w, data)
	})
}

func (s *Server) handleDetail(c echo.Context) error {
	id := c.Param("id")
	snap := s.Store.Snapshot()

	for i := range snap.Opportunities {
		if snap.Opportunities[i].ID.String() == id {
			card := s.Renderer.BuildCard(&snap.Opportunities[i])
			return renderHTML(c, http.StatusOK, func(w *bytes.Buffer) error {
				return s.Renderer.Detail(w, card)
			})
		}
	}

	return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
}

func (s *Server) handleExportCSV(c echo.Context) error {
	filtered := parseFilters(c).Apply(s.Store.Snapshot().Opportunities)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="oportunidades.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return render.WriteCSV(c.Response(), filtered)
}

func (s *Server) handleSave(c echo.Context) error {
	session, err := auth.UpstreamSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	if err := s.Client.Save(c.Request().Context(), session, id, c.FormValue("notes")); err != nil {
		if errors.Is(err, radar.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		c.Logger().Errorf("save proxy failed: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to save opportunity"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleRefresh(c echo.Context) error {
	// Errors land in the snapshot and render as the inline panel, so the
	// redirect happens regardless of the fetch outcome.
	if err := s.Refresher.RefreshNow(c.Request().Context()); err != nil {
		c.Logger().Errorf("manual refresh failed: %v", err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
