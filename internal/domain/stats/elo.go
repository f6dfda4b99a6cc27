package stats

import (
	"fmt"
	"math"

	"github.com/okian/scrollstats/internal/domain/normalize"
)

// Shape labels how a faction's Elo distribution sits around the baseline.
type Shape string

// Dispersion labels.
const (
	ShapeUnknown          Shape = "unknown"
	ShapeSpecialistDriven Shape = "specialist-driven"
	ShapeTopHeavy         Shape = "top-heavy"
	ShapeEven             Shape = "even"
	ShapeInverted         Shape = "inverted"
)

// Thresholds configure Dispersion. They are fixed constants, not fitted.
type Thresholds struct {
	// Baseline is the starting Elo every player begins with.
	Baseline float64
	// SpecialistGap is how far above Baseline the average must sit for a
	// skewed distribution to count as specialist-driven.
	SpecialistGap float64
	// Skew is the average-minus-median gap that marks a lopsided field.
	Skew float64
	// EvenBand is the largest average-median gap still called even.
	EvenBand float64
}

// DefaultThresholds mirror the values the bot has always shipped with.
func DefaultThresholds() Thresholds {
	return Thresholds{Baseline: 400, SpecialistGap: 100, Skew: 25, EvenBand: 10}
}

// Dispersion classifies an Elo distribution from its average and median.
func Dispersion(avg, median normalize.Number, t Thresholds) Shape {
	if !avg.Valid || !median.Valid {
		return ShapeUnknown
	}
	skew := avg.Value - median.Value
	lift := avg.Value - t.Baseline
	switch {
	case skew <= -t.Skew:
		return ShapeInverted
	case skew >= t.Skew && lift >= t.SpecialistGap:
		return ShapeSpecialistDriven
	case skew >= t.Skew:
		return ShapeTopHeavy
	case math.Abs(skew) <= t.EvenBand:
		return ShapeEven
	case skew > 0:
		return ShapeTopHeavy
	default:
		return ShapeInverted
	}
}

// Blurb describes a dispersion for the faction-stats reply.
func Blurb(avg, median normalize.Number, t Thresholds) string {
	shape := Dispersion(avg, median, t)
	switch shape {
	case ShapeSpecialistDriven:
		return fmt.Sprintf("Results are specialist-driven: average Elo %s sits well above the %s start and above the median %s, so a few strong players carry the faction.",
			normalize.OneDecimal(avg), normalize.OneDecimal(normalize.Of(t.Baseline)), normalize.OneDecimal(median))
	case ShapeTopHeavy:
		return fmt.Sprintf("Results are top-heavy: average Elo %s is above the median %s.",
			normalize.OneDecimal(avg), normalize.OneDecimal(median))
	case ShapeEven:
		return fmt.Sprintf("Results are even: average Elo %s and median %s are close together.",
			normalize.OneDecimal(avg), normalize.OneDecimal(median))
	case ShapeInverted:
		return fmt.Sprintf("Results are inverted: the median Elo %s beats the average %s, so a weak tail drags the faction down.",
			normalize.OneDecimal(median), normalize.OneDecimal(avg))
	default:
		return "Not enough Elo data to describe this faction's player base."
	}
}
