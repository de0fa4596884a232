package aggregate

import (
	"slices"
	"strings"

	"github.com/discochess/moveloss/internal/record"
)

// Row is one group of a Table.
type Row struct {
	Key   []string
	Cells []Value
}

// Table is a grouped summary. Rows are sorted by key.
type Table struct {
	KeyNames []string
	Columns  []string
	Rows     []Row
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// Column returns the cells of the named column.
func (t Table) Column(name string) ([]Value, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	vals := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		vals[r] = row.Cells[i]
	}
	return vals, true
}

// Lookup returns the row with the given key.
func (t Table) Lookup(key ...string) (Row, bool) {
	for _, row := range t.Rows {
		if slices.Equal(row.Key, key) {
			return row, true
		}
	}
	return Row{}, false
}

// Cell returns the named cell of the row with the given key.
func (t Table) Cell(column string, key ...string) Value {
	i := t.ColumnIndex(column)
	row, ok := t.Lookup(key...)
	if i < 0 || !ok {
		return Value{}
	}
	return row.Cells[i]
}

// grouper accumulates columns per group key.
type grouper struct {
	ncols  int
	groups map[string]*group
}

type group struct {
	key  []string
	rows int
	accs []Accumulator
}

func newGrouper(ncols int) *grouper {
	return &grouper{ncols: ncols, groups: make(map[string]*group)}
}

func (g *grouper) get(key []string) *group {
	k := strings.Join(key, "\x00")
	gr, ok := g.groups[k]
	if !ok {
		gr = &group{key: key, accs: make([]Accumulator, g.ncols)}
		g.groups[k] = gr
	}
	return gr
}

// addRecord adds the column values of m to the group.
func (g *grouper) addRecord(key []string, m record.Metrics, cols []Column) {
	gr := g.get(key)
	gr.rows++
	for i, c := range cols {
		if v, ok := c.Value(m); ok {
			gr.accs[i].Add(v)
		}
	}
}

// sorted returns the groups ordered by key.
func (g *grouper) sorted() []*group {
	out := make([]*group, 0, len(g.groups))
	for _, gr := range g.groups {
		out = append(out, gr)
	}
	slices.SortFunc(out, func(a, b *group) int {
		return slices.Compare(a.key, b.key)
	})
	return out
}

// aggTable builds a table with one cell per column and aggregation.
func aggTable(keyNames []string, groups []*group, cols []Column, aggs []Agg) Table {
	t := Table{KeyNames: keyNames}
	for _, c := range cols {
		for _, agg := range aggs {
			t.Columns = append(t.Columns, CellName(agg, c.Name))
		}
	}
	for _, gr := range groups {
		row := Row{Key: gr.key, Cells: make([]Value, 0, len(t.Columns))}
		for i := range cols {
			for _, agg := range aggs {
				row.Cells = append(row.Cells, gr.accs[i].Agg(agg))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
