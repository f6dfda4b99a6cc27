package normalize

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is rendered wherever a value is unavailable.
const Placeholder = "—"

// Number is a spreadsheet value that may be missing or unparsable.
type Number struct {
	Value float64
	Valid bool
}

// Of wraps a known value.
func Of(v float64) Number { return Number{Value: v, Valid: true} }

// Unavailable is the zero Number.
var Unavailable = Number{} //nolint:gochecknoglobals // sentinel value

// ParseNumber strips a trailing '%' and grouping commas and parses the rest.
// Empty or unparsable input yields Unavailable.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Unavailable
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Unavailable
	}
	return Of(v)
}

// Sub returns a-b, unavailable when either side is.
func (n Number) Sub(o Number) Number {
	if !n.Valid || !o.Valid {
		return Unavailable
	}
	return Of(n.Value - o.Value)
}

// Percent renders "52.3%".
func Percent(n Number) string {
	if !n.Valid {
		return Placeholder
	}
	return strconv.FormatFloat(round1(n.Value), 'f', 1, 64) + "%"
}

// PointsDelta renders a signed percentage-point delta, e.g. "+10pp", "-6.5pp".
func PointsDelta(n Number) string {
	if !n.Valid {
		return Placeholder
	}
	v := round1(n.Value)
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + strconv.FormatFloat(v, 'f', -1, 64) + "pp"
}

// Int renders a rounded integer with grouping, e.g. "1,234".
func Int(n Number) string {
	if !n.Valid {
		return Placeholder
	}
	return message.NewPrinter(language.English).Sprintf("%d", int64(math.Round(n.Value)))
}

// OneDecimal renders "4.5".
func OneDecimal(n Number) string {
	if !n.Valid {
		return Placeholder
	}
	return strconv.FormatFloat(round1(n.Value), 'f', 1, 64)
}

func round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
