package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmbarbosa/market-radar/internal/models"
	"github.com/dmbarbosa/market-radar/internal/view"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r
}

func testOpportunity() models.Opportunity {
	return models.Opportunity{
		ID:      models.FlexID("opp-1"),
		Keyword: "cadeira gamer",
		Score:   models.FlexFloat(87.3),
		Cluster: "Casa",
		ScoringBreakdown: map[string]float64{
			"IndiceVelocidadeBusca":       0.9,
			"IndiceLacunaOferta":          0.8,
			"IndiceQualidadeConcorrencia": 0.3,
		},
		Meta: models.Meta{
			URL:         "https://example.com/item",
			Marketplace: "mercadolivre",
			Price:       models.FlexFloat(199.9),
		},
	}
}

func renderDashboard(t *testing.T, data DashboardData) *goquery.Document {
	t.Helper()
	r := newTestRenderer(t)
	var buf bytes.Buffer
	if err := r.Dashboard(&buf, data); err != nil {
		t.Fatalf("Dashboard() error: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("failed to parse rendered HTML: %v", err)
	}
	return doc
}

func TestDashboardEmptyState(t *testing.T) {
	doc := renderDashboard(t, DashboardData{
		User: &models.User{Email: "ana@example.com"},
	})

	if doc.Find(".empty-state").Length() != 1 {
		t.Error("expected the empty state message when there are no cards")
	}
	if doc.Find(".opp-card").Length() != 0 {
		t.Error("expected no cards in the empty state")
	}
	if doc.Find("#fetch-error").Length() != 0 {
		t.Error("expected no error panel without a fetch error")
	}
}

func TestDashboardLoadingShowsSkeletons(t *testing.T) {
	doc := renderDashboard(t, DashboardData{
		User:    &models.User{Email: "ana@example.com"},
		Loading: true,
	})

	if got := doc.Find(".skeleton-card").Length(); got != 3 {
		t.Errorf("skeleton cards = %d, want 3", got)
	}
	if doc.Find(".empty-state").Length() != 0 {
		t.Error("loading state must not show the empty-state message")
	}
}

func TestDashboardErrorPanelKeepsStaleCards(t *testing.T) {
	r := newTestRenderer(t)
	opp := testOpportunity()
	doc := renderDashboard(t, DashboardData{
		User:     &models.User{Email: "ana@example.com"},
		Cards:    r.BuildCards([]models.Opportunity{opp}),
		FetchErr: "upstream status 500",
	})

	if doc.Find("#fetch-error").Length() != 1 {
		t.Fatal("expected the error panel")
	}
	if !strings.Contains(doc.Find("#fetch-error").Text(), "Erro ao carregar oportunidades") {
		t.Error("error panel missing the user-facing message")
	}
	if doc.Find(".opp-card").Length() != 1 {
		t.Error("stale cards must stay visible beneath the error panel")
	}
	if doc.Find(".empty-state").Length() != 0 {
		t.Error("error state must not also show the empty-state message")
	}
}

func TestDashboardCardStructure(t *testing.T) {
	r := newTestRenderer(t)
	opp := testOpportunity()
	doc := renderDashboard(t, DashboardData{
		User:  &models.User{Email: "ana@example.com"},
		Cards: r.BuildCards([]models.Opportunity{opp}),
	})

	card := doc.Find(".opp-card")
	if card.Length() != 1 {
		t.Fatalf("cards = %d, want 1", card.Length())
	}
	if got, _ := card.Attr("data-id"); got != "opp-1" {
		t.Errorf("data-id = %q, want opp-1", got)
	}

	score := card.Find(".score-value")
	if got := strings.TrimSpace(score.Text()); got != "87.3" {
		t.Errorf("score display = %q, want 87.3", got)
	}
	if !score.HasClass("score-high") {
		t.Error("score 87.3 should carry score-high")
	}

	if card.Find(".badge-hot").Length() != 1 {
		t.Error("expected the high-demand badge for a hot tier")
	}

	// 0.3 quality is both present and below 0.4, but supply gap 0.8 wins.
	if card.Find(".badges span").Length() != 2 {
		t.Errorf("badges = %d, want 2 (tier + gap)", card.Find(".badges span").Length())
	}

	bars := card.Find(".metric-bar-fill")
	if bars.Length() != 3 {
		t.Fatalf("metric bars = %d, want 3", bars.Length())
	}
	if style, _ := bars.First().Attr("style"); !strings.Contains(style, "width: 90%") {
		t.Errorf("velocity bar style = %q, want width: 90%%", style)
	}

	link := card.Find(".card-actions a")
	if href, _ := link.Attr("href"); href != "https://example.com/item" {
		t.Errorf("outbound link = %q", href)
	}
	if _, ok := card.Find("[data-detail]").Attr("data-detail"); !ok {
		t.Error("missing the detail trigger")
	}
	if _, ok := card.Find("[data-save]").Attr("data-save"); !ok {
		t.Error("missing the save trigger")
	}
}

func TestDashboardFilterStatePersists(t *testing.T) {
	doc := renderDashboard(t, DashboardData{
		User:       &models.User{Email: "ana@example.com"},
		Categories: []string{"Casa", "Tech"},
		Filters: view.Filters{
			Category: "Tech",
			Search:   "fone",
			Sort:     view.SortValidation,
		},
	})

	selected := doc.Find("select[name=category] option[selected]")
	if got, _ := selected.Attr("value"); got != "Tech" {
		t.Errorf("selected category = %q, want Tech", got)
	}
	if got, _ := doc.Find("input[name=q]").Attr("value"); got != "fone" {
		t.Errorf("search value = %q, want fone", got)
	}
	sorted := doc.Find("select[name=sort] option[selected]")
	if got, _ := sorted.Attr("value"); got != "validation" {
		t.Errorf("selected sort = %q, want validation", got)
	}

	href, _ := doc.Find("a[href^='/export.csv']").Attr("href")
	for _, want := range []string{"category=Tech", "q=fone", "sort=validation"} {
		if !strings.Contains(href, want) {
			t.Errorf("export link %q missing %q", href, want)
		}
	}
}

func TestBuildCardSanitizesFreeText(t *testing.T) {
	r := newTestRenderer(t)
	opp := testOpportunity()
	opp.Meta.BuyingIntent = `alta <script>alert("x")</script>intenção`
	opp.Meta.WhyTrending = "<b>viral</b> no TikTok"

	card := r.BuildCard(&opp)

	if strings.Contains(card.BuyingIntent, "<script") {
		t.Errorf("script tag survived sanitization: %q", card.BuyingIntent)
	}
	if strings.Contains(card.WhyTrending, "<b>") {
		t.Errorf("markup survived sanitization: %q", card.WhyTrending)
	}
	if !strings.Contains(card.WhyTrending, "viral") {
		t.Errorf("text content lost in sanitization: %q", card.WhyTrending)
	}
}

func TestLoginPage(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	if err := r.Login(&buf, LoginData{Error: "Credenciais inválidas"}); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}

	form := doc.Find("form[action='/login']")
	if form.Length() != 1 {
		t.Fatal("expected the login form")
	}
	if form.Find("input[name=email]").Length() != 1 || form.Find("input[name=password]").Length() != 1 {
		t.Error("login form missing credential inputs")
	}
	if !strings.Contains(doc.Text(), "Credenciais inválidas") {
		t.Error("login error message not rendered")
	}
}

func TestDetailPartial(t *testing.T) {
	r := newTestRenderer(t)
	card := r.BuildCard(&models.Opportunity{
		ID:      models.FlexID("opp-9"),
		Keyword: "air fryer",
		Score:   models.FlexFloat(55),
		Cluster: "Cozinha",
	})

	var buf bytes.Buffer
	if err := r.Detail(&buf, card); err != nil {
		t.Fatalf("Detail() error: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(doc.Text(), "air fryer") {
		t.Error("detail partial missing the keyword")
	}
	if !strings.Contains(doc.Text(), "Cozinha") {
		t.Error("detail partial missing the cluster")
	}
}

func TestWriteCSV(t *testing.T) {
	opps := []models.Opportunity{
		{
			Keyword: "cadeira gamer",
			Score:   models.FlexFloat(87.3),
			Meta:    models.Meta{URL: "https://example.com/a"},
			ScoringBreakdown: map[string]float64{
				"IndiceVelocidadeBusca": 0.9,
				"IndiceLacunaOferta":    0.75,
			},
		},
		{
			Keyword: "fone bluetooth",
			Score:   models.FlexFloat(42),
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, opps); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3 (header + 2 rows)", len(lines))
	}
	if lines[0] != "Keyword,Score,URL,Velocity,Gap" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "cadeira gamer,87.3,https://example.com/a,0.9,0.75" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "fone bluetooth,42,,0,0" {
		t.Errorf("row 2 = %q", lines[2])
	}
	if strings.HasSuffix(buf.String(), "\n") {
		t.Error("export must not end with a trailing newline")
	}
}

func TestWriteCSVEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	if buf.String() != "Keyword,Score,URL,Velocity,Gap" {
		t.Errorf("empty export = %q, want header only", buf.String())
	}
}
