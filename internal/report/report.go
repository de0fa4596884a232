// Package report renders aggregation reports as aligned text or markdown.
// Both renderers print the same sections in the same order; only the table
// layout differs.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/discochess/moveloss/internal/aggregate"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("report: unknown format")

// Format selects a renderer.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatMarkdown:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options controls number formatting.
type Options struct {
	// GeneralDecimals applies to the raw data and bucketed move stats.
	GeneralDecimals int
	// PlayerDecimals applies to correlations and player stats.
	PlayerDecimals int
	// RawRows is how many records are shown at each end of the raw data.
	RawRows int
}

// DefaultOptions returns the precision of the original reports.
func DefaultOptions() Options {
	return Options{GeneralDecimals: 3, PlayerDecimals: 4, RawRows: 5}
}

// Write renders r in format f.
func Write(w io.Writer, f Format, r *aggregate.Report, opts Options) error {
	switch f {
	case FormatText:
		return Text(w, r, opts)
	case FormatMarkdown:
		return Markdown(w, r, opts)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Text renders r with whitespace-aligned tables.
func Text(w io.Writer, r *aggregate.Report, opts Options) error {
	return render(w, sections(r, opts), writeText)
}

// Markdown renders r with markdown tables.
func Markdown(w io.Writer, r *aggregate.Report, opts Options) error {
	return render(w, sections(r, opts), writeMarkdown)
}

// grid is a table of preformatted cells.
type grid struct {
	header []string
	rows   [][]string
}

// section is a heading, optionally followed by a table and a note.
type section struct {
	level int
	title string
	grid  *grid
	note  string
}

func render(w io.Writer, secs []section, table func(io.Writer, *grid) error) error {
	bw := bufio.NewWriter(w)
	for _, s := range secs {
		for range s.level {
			bw.WriteByte('#')
		}
		fmt.Fprintf(bw, " %s\n", s.title)
		if s.grid != nil {
			if err := table(bw, s.grid); err != nil {
				return err
			}
		}
		if s.note != "" {
			fmt.Fprintln(bw, s.note)
		}
		if s.grid != nil {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

func sections(r *aggregate.Report, opts Options) []section {
	secs := []section{{level: 1, title: "Raw data"}}
	raw, note := rawGrid(r, opts)
	secs[0].grid, secs[0].note = raw, note

	secs = append(secs, section{level: 1, title: "General stats"})
	for _, b := range r.Buckets {
		secs = append(secs, section{
			level: 2,
			title: "move stats aggregated by " + b.Spec.Name,
			grid:  tableGrid(b.Table, opts.GeneralDecimals),
		})
	}

	secs = append(secs,
		section{level: 2, title: "game stats correlation"},
		section{level: 3, title: "Pearson", grid: matrixGrid(r.Pearson, opts.PlayerDecimals)},
		section{level: 3, title: "Spearman", grid: matrixGrid(r.Spearman, opts.PlayerDecimals)},
		section{level: 1, title: "Player stats"},
		section{level: 2, title: "stats aggregated per player and game", grid: tableGrid(r.Games, opts.PlayerDecimals)},
		section{level: 2, title: "move stats aggregated per player", grid: tableGrid(r.Players, opts.PlayerDecimals)},
		section{level: 2, title: "game stats aggregated per player", grid: tableGrid(r.PlayerGames, opts.PlayerDecimals)},
	)
	return secs
}

func tableGrid(t aggregate.Table, decimals int) *grid {
	g := &grid{header: append(append([]string(nil), t.KeyNames...), t.Columns...)}
	for _, row := range t.Rows {
		cells := append([]string(nil), row.Key...)
		for _, v := range row.Cells {
			cells = append(cells, v.Format(decimals))
		}
		g.rows = append(g.rows, cells)
	}
	return g
}

func matrixGrid(m aggregate.Matrix, decimals int) *grid {
	g := &grid{header: append([]string{""}, m.Columns...)}
	for i, name := range m.Columns {
		cells := []string{name}
		for _, v := range m.Cells[i] {
			cells = append(cells, v.Format(decimals))
		}
		g.rows = append(g.rows, cells)
	}
	return g
}

// rawGrid shows the first and last records, like a truncated data frame.
func rawGrid(r *aggregate.Report, opts Options) (*grid, string) {
	names := []string{
		aggregate.ColElo, aggregate.ColPly, aggregate.ColCE, aggregate.ColCE2,
		aggregate.ColBestMove, aggregate.ColCPL, aggregate.ColCPL2, aggregate.ColScore,
	}
	for _, m := range r.Models {
		names = append(names, aggregate.LossColumn(m))
	}
	// Built-in names always resolve.
	cols, _ := aggregate.Columns(names, r.OutlierFloor)

	g := &grid{header: append([]string{"", aggregate.KeyPlayer, aggregate.KeyGame, "color"}, names...)}
	n := len(r.Records)
	row := func(i int) []string {
		m := r.Records[i]
		cells := []string{strconv.Itoa(i), m.Player, m.ID, m.Color}
		for _, c := range cols {
			cells = append(cells, rawCell(c, m, opts.GeneralDecimals))
		}
		return cells
	}

	if opts.RawRows <= 0 || n <= 2*opts.RawRows {
		for i := range n {
			g.rows = append(g.rows, row(i))
		}
	} else {
		for i := range opts.RawRows {
			g.rows = append(g.rows, row(i))
		}
		ellipsis := make([]string, len(g.header))
		for i := range ellipsis {
			ellipsis[i] = "..."
		}
		g.rows = append(g.rows, ellipsis)
		for i := n - opts.RawRows; i < n; i++ {
			g.rows = append(g.rows, row(i))
		}
	}
	return g, fmt.Sprintf("[%d rows x %d columns]", n, len(g.header)-1)
}
