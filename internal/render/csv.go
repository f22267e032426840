package render

import (
	"io"
	"strconv"
	"strings"

	"github.com/dmbarbosa/market-radar/internal/classify"
	"github.com/dmbarbosa/market-radar/internal/models"
)

// csvHeader is the fixed export column order.
var csvHeader = []string{"Keyword", "Score", "URL", "Velocity", "Gap"}

// WriteCSV serializes the list as comma-joined rows, one line per record.
// Fields are written verbatim: a comma inside a keyword shifts columns.
// That matches the published export format; do not swap in a quoting CSV
// writer without versioning the format.
func WriteCSV(w io.Writer, opps []models.Opportunity) error {
	lines := make([]string, 0, len(opps)+1)
	lines = append(lines, strings.Join(csvHeader, ","))

	for i := range opps {
		o := &opps[i]
		velocity, _ := o.Signal(classify.SignalVelocity)
		gap, _ := o.Signal(classify.SignalSupplyGap)

		row := []string{
			o.Keyword,
			formatNumber(float64(o.Score)),
			o.TargetURL(),
			formatNumber(velocity),
			formatNumber(gap),
		}
		lines = append(lines, strings.Join(row, ","))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
