package report

import (
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/discochess/moveloss/internal/aggregate"
	"github.com/discochess/moveloss/internal/record"
)

// rawCell formats one record value: integers as such, the best-move flag as
// True/False and missing values as NaN.
func rawCell(c aggregate.Column, m record.Metrics, decimals int) string {
	v, ok := c.Value(m)
	switch {
	case !ok:
		return "NaN"
	case c.Name == aggregate.ColBestMove:
		if v != 0 {
			return "True"
		}
		return "False"
	case c.Name == aggregate.ColScore || strings.HasPrefix(c.Name, aggregate.LossColumn("")):
		return strconv.FormatFloat(v, 'f', decimals, 64)
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func writeText(w io.Writer, g *grid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	writeRow := func(cells []string) {
		for _, c := range cells {
			io.WriteString(tw, c)
			io.WriteString(tw, "\t")
		}
		io.WriteString(tw, "\n")
	}
	writeRow(g.header)
	for _, row := range g.rows {
		writeRow(row)
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, g *grid) error {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(c, "|", `\|`))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(g.header)
	b.WriteString("|")
	for range g.header {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range g.rows {
		writeRow(row)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
