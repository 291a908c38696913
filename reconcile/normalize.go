package reconcile

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// NormalizePercent reduces a percent literal to its absolute decimal
// magnitude: "-10%" and "10%" both become 10, "10,5%" becomes 10.5. The
// comma decimal separator is converted to a dot, the percent sign stripped
// and the sign dropped. Unparsable literals become 0, favoring completion
// over rejection.
func NormalizePercent(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, ",", ".")
	return math.Abs(cast.ToFloat64(s))
}

// toAmount parses a numeric field edited as text. Unparsable input
// defaults to 0. Comma decimal separators are accepted, the gateway speaks
// to Italian spreadsheets.
func toAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", ".")
	return cast.ToFloat64(s)
}

// formatAmount renders a numeric value back into an editable field.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
