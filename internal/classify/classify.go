// Package classify maps a raw opportunity record to its display
// classification: tier, badges, strategy text and normalized metric bars.
// Everything here is pure; records are never mutated.
package classify

import (
	"github.com/dmbarbosa/market-radar/internal/models"
)

// Signal names produced by the upstream V2 scoring pipeline.
const (
	SignalVelocity           = "IndiceVelocidadeBusca"
	SignalVelocityLegacy     = "velocity_score"
	SignalSupplyGap          = "IndiceLacunaOferta"
	SignalCompetitionQuality = "IndiceQualidadeConcorrencia"
	SignalMarketValidation   = "market_validation"
)

// Tier thresholds. Boundary values belong to the higher tier.
const (
	hotThreshold    = 80
	mediumThreshold = 50
)

// Competition quality defaults to 0.8 when the index is absent: an
// unknown-quality competitor is treated as reasonably strong, so the
// derived opportunity bar stays low by default.
const defaultCompetitionQuality = 0.8

// Supply gap above this adds the low-supply badge.
const supplyGapBadgeThreshold = 0.7

// Competition quality below this adds the weak-competition badge.
const lowQualityBadgeThreshold = 0.4

type Tier int

const (
	TierCold Tier = iota
	TierMedium
	TierHot
)

func (t Tier) String() string {
	switch t {
	case TierHot:
		return "hot"
	case TierMedium:
		return "medium-gap"
	default:
		return "cold"
	}
}

// ScoreClass returns the CSS class for the score value.
func (t Tier) ScoreClass() string {
	switch t {
	case TierHot:
		return "score-high"
	case TierMedium:
		return "score-med"
	default:
		return "score-low"
	}
}

// Badge is one visual tag on a card.
type Badge struct {
	Label string
	Class string
}

// Classification is the full derived view of one opportunity.
type Classification struct {
	Tier     Tier
	Badges   []Badge
	Strategy string

	// Bar widths, each already clamped to [5,100].
	Velocity    float64
	SupplyGap   float64
	Opportunity float64
}

// TierForScore buckets a score. Ties at the exact boundary go up.
func TierForScore(score float64) Tier {
	switch {
	case score >= hotThreshold:
		return TierHot
	case score >= mediumThreshold:
		return TierMedium
	default:
		return TierCold
	}
}

// DisplayBar normalizes a 0-1 signal to a 5-100 bar width. A zero or
// absent value still shows a visible minimum bar; overshoot is capped.
func DisplayBar(v float64) float64 {
	bar := v * 100
	if bar < 5 {
		return 5
	}
	if bar > 100 {
		return 100
	}
	return bar
}

func strategyFor(t Tier) string {
	switch t {
	case TierHot:
		return "Crescimento explosivo. Ação imediata recomendada."
	case TierMedium:
		return "Bom potencial com competição moderada."
	default:
		return "Monitorar para futuro crescimento."
	}
}

func tierBadge(t Tier) Badge {
	switch t {
	case TierHot:
		return Badge{Label: "🔥 Alta Demanda", Class: "badge-hot"}
	case TierMedium:
		return Badge{Label: "💎 Lacuna Média", Class: "badge-gap"}
	default:
		return Badge{Label: "🧊 Frio", Class: "badge-emerging"}
	}
}

// Classify derives the display classification for one opportunity.
func Classify(o *models.Opportunity) Classification {
	tier := TierForScore(float64(o.Score))

	badges := []Badge{tierBadge(tier)}

	supplyGap, _ := o.Signal(SignalSupplyGap)
	quality, qualityPresent := o.Signal(SignalCompetitionQuality)

	// Mutually exclusive secondary badge; supply gap wins. An absent
	// quality index yields no badge (only the bar uses the 0.8 default).
	if supplyGap > supplyGapBadgeThreshold {
		badges = append(badges, Badge{Label: "📉 Baixa Oferta", Class: "badge-gap"})
	} else if qualityPresent && quality < lowQualityBadgeThreshold {
		badges = append(badges, Badge{Label: "⭐ Qualidade Baixa", Class: "badge-emerging"})
	}

	// Velocity falls back to the legacy key when the V2 index is zero
	// or absent, matching the original dashboard.
	velocity, _ := o.Signal(SignalVelocity)
	if velocity == 0 {
		velocity, _ = o.Signal(SignalVelocityLegacy)
	}

	// A present-but-zero quality index also falls back to the default;
	// only a real reading drives the inversion.
	effectiveQuality := quality
	if effectiveQuality == 0 {
		effectiveQuality = defaultCompetitionQuality
	}

	return Classification{
		Tier:        tier,
		Badges:      badges,
		Strategy:    strategyFor(tier),
		Velocity:    DisplayBar(velocity),
		SupplyGap:   DisplayBar(supplyGap),
		Opportunity: DisplayBar(1 - effectiveQuality),
	}
}
