package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexFloat decodes JSON values that may arrive as a number or a string.
// The upstream API serializes some numeric columns (price, legacy scores)
// as strings depending on which pipeline produced the row.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexFloat(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// FlexID decodes an identifier that may arrive as a JSON number or string.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*id = FlexID(num.String())
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into id", string(data))
}

func (id FlexID) String() string { return string(id) }

// Meta carries optional presentation fields attached to an opportunity.
type Meta struct {
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Price        FlexFloat `json:"price,omitempty"`
	Rating       FlexFloat `json:"rating,omitempty"`
	Marketplace  string    `json:"marketplace,omitempty"`
	URL          string    `json:"url,omitempty"`
	FreeShipping bool      `json:"free_shipping,omitempty"`
	BuyingIntent string    `json:"buying_intent,omitempty"`
	WhyTrending  string    `json:"why_trending,omitempty"`
	Category     string    `json:"category,omitempty"`
}

// Opportunity is one ranked keyword/product signal record as returned by the
// ranking API. Records are immutable once fetched: display values are always
// derived, never written back.
type Opportunity struct {
	ID               FlexID             `json:"id"`
	Keyword          string             `json:"keyword"`
	Score            FlexFloat          `json:"score"`
	Cluster          string             `json:"cluster"`
	ClusterName      string             `json:"cluster_name"`
	Signals          map[string]float64 `json:"signals"`
	ScoringBreakdown map[string]float64 `json:"scoring_breakdown"`
	Sources          []string           `json:"sources"`
	Meta             Meta               `json:"meta"`
	Thumbnail        string             `json:"thumbnail"`
	URL              string             `json:"url"`
}

// Category returns the grouping label for filtering: the cluster name when
// present, otherwise the meta category.
func (o *Opportunity) Category() string {
	if o.Cluster != "" {
		return o.Cluster
	}
	if o.ClusterName != "" {
		return o.ClusterName
	}
	return o.Meta.Category
}

// TargetURL returns the outbound link, preferring the top-level field.
func (o *Opportunity) TargetURL() string {
	if o.URL != "" {
		return o.URL
	}
	return o.Meta.URL
}

// ThumbnailURL returns the thumbnail, preferring the top-level field.
func (o *Opportunity) ThumbnailURL() string {
	if o.Thumbnail != "" {
		return o.Thumbnail
	}
	return o.Meta.Thumbnail
}

// Signal returns a named 0-1 sub-metric, reporting whether it was present.
// It checks the scoring breakdown first, then the raw signals map.
func (o *Opportunity) Signal(name string) (float64, bool) {
	if v, ok := o.ScoringBreakdown[name]; ok {
		return v, true
	}
	if v, ok := o.Signals[name]; ok {
		return v, true
	}
	return 0, false
}

// StatsSummary is the aggregate counters object from GET /api/stats.
type StatsSummary struct {
	TotalOpportunities int       `json:"total_opportunities"`
	TotalProducts      int       `json:"total_products"`
	AvgScore           FlexFloat `json:"avg_score"`
	TopScore           FlexFloat `json:"top_score"`
}

// Product is one row of the raw product listing (secondary view).
type Product struct {
	ID          FlexID    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Thumbnail   string    `json:"thumbnail"`
	Price       FlexFloat `json:"price"`
	Marketplace string    `json:"marketplace"`
	Keyword     string    `json:"keyword"`
	Score       FlexFloat `json:"score"`
	Cluster     string    `json:"cluster"`
	ScrapedAt   string    `json:"scraped_at"`
}

// User is the session identity from GET /api/auth/me. Display only: the
// upstream API is the sole authority on authorization.
type User struct {
	ID      FlexID `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Credits int    `json:"credits"`
}

// DisplayName mirrors the original dashboard header: the name when set,
// otherwise the local part of the email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// RankingResponse is the envelope of GET /api/ranking.
type RankingResponse struct {
	Opportunities []Opportunity `json:"opportunities"`
	Count         int           `json:"count"`
}

// ProductsResponse is the envelope of GET /api/products.
type ProductsResponse struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}
