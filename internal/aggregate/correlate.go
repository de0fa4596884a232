package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Method selects a correlation coefficient.
type Method string

// Correlation methods.
const (
	Pearson  Method = "pearson"
	Spearman Method = "spearman"
)

// Matrix holds pairwise correlations between table columns.
type Matrix struct {
	Method  Method
	Columns []string
	Cells   [][]Value
}

// At returns the correlation between columns a and b.
func (m Matrix) At(a, b string) Value {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return Value{}
	}
	return m.Cells[i][j]
}

// Correlate computes the correlation of every pair of columns of t, using
// the rows where both cells are defined. A pair is undefined with fewer
// than two such rows or when either side has no variance.
func Correlate(t Table, method Method) Matrix {
	n := len(t.Columns)
	m := Matrix{
		Method:  method,
		Columns: append([]string(nil), t.Columns...),
		Cells:   make([][]Value, n),
	}
	for i := range m.Cells {
		m.Cells[i] = make([]Value, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x, y := pairwise(t, i, j)
			v := correlation(x, y, method)
			m.Cells[i][j] = v
			m.Cells[j][i] = v
		}
	}
	return m
}

// pairwise returns the values of columns i and j on rows where both are
// defined.
func pairwise(t Table, i, j int) (x, y []float64) {
	for _, row := range t.Rows {
		a, b := row.Cells[i], row.Cells[j]
		if a.Valid && b.Valid {
			x = append(x, a.V)
			y = append(y, b.V)
		}
	}
	return x, y
}

func correlation(x, y []float64, method Method) Value {
	if len(x) < 2 {
		return Value{}
	}
	if method == Spearman {
		x, y = rank(x), rank(y)
	}
	if constant(x) || constant(y) {
		return Value{}
	}
	return Of(stat.Correlation(x, y, nil))
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// rank returns 1-based ranks, ties sharing their average rank.
func rank(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, len(values))
	i := 0
	for i < len(idx) {
		j := i
		for j < len(idx) && values[idx[j]] == values[idx[i]] {
			j++
		}
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j
	}
	return ranks
}
