// Package render turns classified opportunity records into HTML. Each call
// produces the full markup for its region; there is no diffing, a render
// replaces everything that was there before.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dmbarbosa/market-radar/internal/classify"
	"github.com/dmbarbosa/market-radar/internal/models"
	"github.com/dmbarbosa/market-radar/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFS exposes the embedded decorative assets (CSS, toast/tilt/theme
// scripts). They carry no data contract beyond classified display values.
func StaticFS() embed.FS { return staticFS }

// Card is the fully derived display view of one opportunity.
type Card struct {
	ID           string
	Keyword      string
	ScoreDisplay string
	Thumbnail    string
	URL          string
	Cluster      string
	Marketplace  string
	Price        float64
	FreeShipping bool
	BuyingIntent string
	WhyTrending  string

	classify.Classification
}

// DashboardData is everything the dashboard template needs for one render.
type DashboardData struct {
	User       *models.User
	Stats      *models.StatsSummary
	Categories []string
	Filters    view.Filters
	Cards      []Card

	// FetchErr renders the inline error panel, distinct from the empty
	// state. Cards may still be present: a stale but previously rendered
	// list stays visible beneath the panel.
	FetchErr string

	// Loading shows the skeleton grid. Only set when no fetch has ever
	// populated the snapshot, so background refreshes do not flash.
	Loading bool
}

// LoginData feeds the login page.
type LoginData struct {
	Error string
}

// ProductsData feeds the secondary product listing.
type ProductsData struct {
	User     *models.User
	Products []models.Product
	FetchErr string
}

// SavedData feeds the saved-opportunities page.
type SavedData struct {
	User     *models.User
	Cards    []Card
	FetchErr string
}

// Renderer holds the parsed templates and the sanitizer for upstream-
// provided free text.
type Renderer struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
}

func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.0f", v) },
	}
	tmpl, err := template.New("radar").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{
		tmpl:   tmpl,
		policy: bluemonday.StrictPolicy(),
	}, nil
}

// BuildCard derives the display card for one opportunity, sanitizing the
// upstream free-text fields before they reach a template.
func (r *Renderer) BuildCard(o *models.Opportunity) Card {
	return Card{
		ID:             o.ID.String(),
		Keyword:        o.Keyword,
		ScoreDisplay:   fmt.Sprintf("%.1f", float64(o.Score)),
		Thumbnail:      o.ThumbnailURL(),
		URL:            o.TargetURL(),
		Cluster:        o.Category(),
		Marketplace:    o.Meta.Marketplace,
		Price:          float64(o.Meta.Price),
		FreeShipping:   o.Meta.FreeShipping,
		BuyingIntent:   r.policy.Sanitize(o.Meta.BuyingIntent),
		WhyTrending:    r.policy.Sanitize(o.Meta.WhyTrending),
		Classification: classify.Classify(o),
	}
}

// BuildCards derives cards for a whole list, preserving order.
func (r *Renderer) BuildCards(opps []models.Opportunity) []Card {
	cards := make([]Card, len(opps))
	for i := range opps {
		cards[i] = r.BuildCard(&opps[i])
	}
	return cards
}

func (r *Renderer) Dashboard(w io.Writer, data DashboardData) error {
	return r.tmpl.ExecuteTemplate(w, "dashboard.html", data)
}

func (r *Renderer) Login(w io.Writer, data LoginData) error {
	return r.tmpl.ExecuteTemplate(w, "login.html", data)
}

func (r *Renderer) Products(w io.Writer, data ProductsData) error {
	return r.tmpl.ExecuteTemplate(w, "products.html", data)
}

func (r *Renderer) Saved(w io.Writer, data SavedData) error {
	return r.tmpl.ExecuteTemplate(w, "saved.html", data)
}

// Detail renders the modal partial for one card.
func (r *Renderer) Detail(w io.Writer, card Card) error {
	return r.tmpl.ExecuteTemplate(w, "detail.html", card)
}
