// Package valuation grades cataloger-entered prices against a fetched
// comparable-sales range. The thresholds are deliberately tiered: a single
// tolerance band would either over-flag reasonable professional judgment or
// miss decimal-point-scale errors, so extreme deviations are classified
// before the moderate band is consulted, and reserve analysis falls back to
// market-only bounds when the estimate itself is not a trustworthy anchor.
package valuation

import (
	"fmt"

	"github.com/auctiondesk/lotsense/internal/market"
)

type Severity string

const (
	SeverityPositive Severity = "positive"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
)

type Field string

const (
	FieldEstimate      Field = "estimate"
	FieldUpperEstimate Field = "upper_estimate"
	FieldReserve       Field = "reserve"
)

type Suggestion struct {
	Field          Field    `json:"field"`
	Message        string   `json:"message"`
	SuggestedRange string   `json:"suggested_range"`
	Severity       Severity `json:"severity"`
}

// Config carries every numeric cutoff the comparator applies. The extremity
// ratios come straight from observed cataloging practice and are kept as
// configuration rather than re-derived.
type Config struct {
	ExtremeHighRatio float64 // currentValue/marketHigh above this is an extreme deviation
	ExtremeLowRatio  float64 // currentValue/marketLow below this is an extreme deviation
	ToleranceBand    float64 // fraction widening the market range before flagging moderate deviation

	BelowSuggestLowFactor  float64 // suggested-range low for under-valued items, of marketLow
	AboveSuggestHighFactor float64 // suggested-range high for over-valued items, of marketHigh

	UpperEstimateMinFactor    float64 // lower bound of upper estimate, of base estimate
	UpperEstimateMaxFactor    float64 // upper bound of upper estimate, of base estimate
	UpperEstimateMarketFactor float64 // hard cap of upper estimate, of marketHigh

	ReserveEstimateMinFactor float64 // reserve band low, of base estimate
	ReserveEstimateMaxFactor float64 // reserve band high, of base estimate
	ReserveMarketIdealFactor float64 // market-only reserve ideal, of marketLow
	ReserveMarketMaxFactor   float64 // market-only reserve ceiling, of marketLow
}

func DefaultConfig() Config {
	return Config{
		ExtremeHighRatio:          3.0,
		ExtremeLowRatio:           0.3,
		ToleranceBand:             0.3,
		BelowSuggestLowFactor:     0.8,
		AboveSuggestHighFactor:    1.2,
		UpperEstimateMinFactor:    1.2,
		UpperEstimateMaxFactor:    1.5,
		UpperEstimateMarketFactor: 1.2,
		ReserveEstimateMinFactor:  0.6,
		ReserveEstimateMaxFactor:  0.8,
		ReserveMarketIdealFactor:  0.7,
		ReserveMarketMaxFactor:    0.9,
	}
}

type Comparator struct {
	cfg Config
}

func NewComparator() *Comparator {
	return NewComparatorWithConfig(DefaultConfig())
}

func NewComparatorWithConfig(cfg Config) *Comparator {
	return &Comparator{cfg: cfg}
}

// Compare classifies one valuation against the market range, evaluating the
// extreme tier before the moderate tolerance band.
func (c *Comparator) Compare(field Field, value, marketLow, marketHigh float64) Suggestion {
	if value <= 0 || marketLow <= 0 || marketHigh <= 0 {
		return Suggestion{
			Field:    field,
			Message:  "Not enough data to compare this valuation against the market.",
			Severity: SeverityLow,
		}
	}
	marketMid := (marketLow + marketHigh) / 2

	if value/marketHigh > c.cfg.ExtremeHighRatio {
		return Suggestion{
			Field:          field,
			Message:        fmt.Sprintf("The %s is far above the market range for comparable items.", fieldLabel(field)),
			SuggestedRange: formatRange(marketLow, marketHigh),
			Severity:       SeverityHigh,
		}
	}
	if value/marketLow < c.cfg.ExtremeLowRatio {
		return Suggestion{
			Field:          field,
			Message:        fmt.Sprintf("The %s is far below the market range for comparable items.", fieldLabel(field)),
			SuggestedRange: formatRange(marketLow, marketHigh),
			Severity:       SeverityHigh,
		}
	}

	bandLow := marketLow * (1 - c.cfg.ToleranceBand)
	bandHigh := marketHigh * (1 + c.cfg.ToleranceBand)
	if value < bandLow {
		return Suggestion{
			Field:          field,
			Message:        fmt.Sprintf("The %s is below comparable sales.", fieldLabel(field)),
			SuggestedRange: formatRange(marketLow*c.cfg.BelowSuggestLowFactor, marketMid),
			Severity:       SeverityMedium,
		}
	}
	if value > bandHigh {
		return Suggestion{
			Field:          field,
			Message:        fmt.Sprintf("The %s is above comparable sales.", fieldLabel(field)),
			SuggestedRange: formatRange(marketMid, marketHigh*c.cfg.AboveSuggestHighFactor),
			Severity:       SeverityMedium,
		}
	}

	return Suggestion{
		Field:          field,
		Message:        fmt.Sprintf("The %s is well aligned with the market.", fieldLabel(field)),
		SuggestedRange: formatRange(marketLow, marketHigh),
		Severity:       SeverityPositive,
	}
}

// AnalyzeUpperEstimate checks the upper estimate against the expected
// 1.2x-1.5x band over the base estimate, capped by the market ceiling.
// A nil result means the upper estimate needs no flag.
func (c *Comparator) AnalyzeUpperEstimate(estimate, upper, marketLow, marketHigh float64) *Suggestion {
	if estimate <= 0 || upper <= 0 {
		return nil
	}
	bandLow := estimate * c.cfg.UpperEstimateMinFactor
	bandHigh := estimate * c.cfg.UpperEstimateMaxFactor
	ceiling := 0.0
	if marketHigh > 0 {
		ceiling = marketHigh * c.cfg.UpperEstimateMarketFactor
		if ceiling < bandHigh {
			bandHigh = ceiling
		}
	}
	if upper >= bandLow && upper <= bandHigh {
		return nil
	}

	msg := "The upper estimate sits outside the expected 1.2x-1.5x band over the estimate."
	if ceiling > 0 && upper > ceiling {
		msg = "The upper estimate exceeds what the market ceiling supports."
	} else if upper < bandLow {
		msg = "The upper estimate is tight; it is below 1.2x of the estimate."
	}
	if bandLow > bandHigh {
		// Market ceiling below the whole estimate band: suggest the ceiling alone.
		bandLow = bandHigh
	}
	return &Suggestion{
		Field:          FieldUpperEstimate,
		Message:        msg,
		SuggestedRange: formatRange(bandLow, bandHigh),
		Severity:       SeverityLow,
	}
}

// AnalyzeAcceptedReserve grades the reserve. When the base estimate itself
// is wildly inconsistent with the market, the estimate is ignored and the
// reserve is judged purely against market-derived bounds; otherwise the
// estimate-derived band applies with the market ceiling layered on top.
// A positive suggestion is emitted when the reserve already sits in band.
func (c *Comparator) AnalyzeAcceptedReserve(estimate, reserve, marketLow, marketHigh float64) *Suggestion {
	if reserve <= 0 || marketLow <= 0 || marketHigh <= 0 {
		return nil
	}

	estimateTrustworthy := estimate > 0 &&
		estimate/marketHigh >= c.cfg.ExtremeLowRatio &&
		estimate/marketHigh <= c.cfg.ExtremeHighRatio

	marketIdeal := marketLow * c.cfg.ReserveMarketIdealFactor
	marketMax := marketLow * c.cfg.ReserveMarketMaxFactor

	if !estimateTrustworthy {
		if reserve <= marketMax {
			return &Suggestion{
				Field:          FieldReserve,
				Message:        "The reserve sits safely under comparable sales, judged against the market alone.",
				SuggestedRange: formatRange(marketIdeal, marketMax),
				Severity:       SeverityPositive,
			}
		}
		return &Suggestion{
			Field:          FieldReserve,
			Message:        "The estimate is inconsistent with the market; judged against the market alone, the reserve is high.",
			SuggestedRange: formatRange(marketIdeal, marketMax),
			Severity:       SeverityMedium,
		}
	}

	bandLow := estimate * c.cfg.ReserveEstimateMinFactor
	bandHigh := estimate * c.cfg.ReserveEstimateMaxFactor
	if marketMax < bandHigh {
		bandHigh = marketMax
	}
	if bandLow > bandHigh {
		bandLow = bandHigh
	}

	switch {
	case reserve > bandHigh:
		return &Suggestion{
			Field:          FieldReserve,
			Message:        "The reserve is high relative to the estimate and the market ceiling.",
			SuggestedRange: formatRange(bandLow, bandHigh),
			Severity:       SeverityMedium,
		}
	case reserve < bandLow:
		return &Suggestion{
			Field:          FieldReserve,
			Message:        "The reserve is conservative; it could sit closer to 60-80% of the estimate.",
			SuggestedRange: formatRange(bandLow, bandHigh),
			Severity:       SeverityLow,
		}
	default:
		return &Suggestion{
			Field:          FieldReserve,
			Message:        "The reserve sits in the accepted band for this estimate.",
			SuggestedRange: formatRange(bandLow, bandHigh),
			Severity:       SeverityPositive,
		}
	}
}

// Analyze runs every applicable check for one item against a snapshot and
// returns the resulting suggestions. Snapshots without comparable data
// yield none.
func (c *Comparator) Analyze(estimate, upper, reserve float64, snap market.Snapshot) []Suggestion {
	if !snap.HasComparableData || snap.PriceRange == nil {
		return nil
	}
	low, high := snap.PriceRange.Low, snap.PriceRange.High

	out := []Suggestion{}
	if estimate > 0 {
		out = append(out, c.Compare(FieldEstimate, estimate, low, high))
	}
	if s := c.AnalyzeUpperEstimate(estimate, upper, low, high); s != nil {
		out = append(out, *s)
	}
	if s := c.AnalyzeAcceptedReserve(estimate, reserve, low, high); s != nil {
		out = append(out, *s)
	}
	return out
}

func fieldLabel(f Field) string {
	switch f {
	case FieldUpperEstimate:
		return "upper estimate"
	case FieldReserve:
		return "reserve"
	default:
		return "estimate"
	}
}

func formatRange(low, high float64) string {
	return fmt.Sprintf("%.0f-%.0f", low, high)
}
