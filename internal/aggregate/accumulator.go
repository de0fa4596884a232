// Package aggregate groups move metrics into summary tables and computes
// correlation matrices over them.
//
// Groups are built in one pass with running accumulators (count, sum and
// sum of squares) and finalized when a table is produced. Row order is
// always sorted by group key.
package aggregate

import (
	"math"
	"strconv"
)

// Value is a table cell. An invalid Value is undefined: an empty group,
// a deviation over fewer than two samples or an undefined correlation.
type Value struct {
	V     float64
	Valid bool
}

// Of returns a valid Value.
func Of(v float64) Value {
	return Value{V: v, Valid: true}
}

// Float returns V, or NaN when the value is undefined.
func (v Value) Float() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.V
}

// Format renders the value with the given number of decimals.
func (v Value) Format(decimals int) string {
	if !v.Valid {
		return "NaN"
	}
	return strconv.FormatFloat(v.V, 'f', decimals, 64)
}

// Accumulator keeps running totals of a series.
type Accumulator struct {
	count int
	sum   float64
	sumSq float64
}

// Add adds v to the series.
func (a *Accumulator) Add(v float64) {
	a.count++
	a.sum += v
	a.sumSq += v * v
}

// Merge adds the totals of o.
func (a *Accumulator) Merge(o Accumulator) {
	a.count += o.count
	a.sum += o.sum
	a.sumSq += o.sumSq
}

// Count returns the number of values added.
func (a Accumulator) Count() int {
	return a.count
}

// Sum returns the total, undefined for an empty series.
func (a Accumulator) Sum() Value {
	if a.count == 0 {
		return Value{}
	}
	return Of(a.sum)
}

// Mean returns the arithmetic mean, undefined for an empty series.
func (a Accumulator) Mean() Value {
	if a.count == 0 {
		return Value{}
	}
	return Of(a.sum / float64(a.count))
}

// Std returns the sample standard deviation (n-1 denominator), undefined
// for fewer than two values.
func (a Accumulator) Std() Value {
	if a.count < 2 {
		return Value{}
	}
	n := float64(a.count)
	variance := (a.sumSq - a.sum*a.sum/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return Of(math.Sqrt(variance))
}

// Agg returns the aggregate named by g.
func (a Accumulator) Agg(g Agg) Value {
	switch g {
	case Mean:
		return a.Mean()
	case Std:
		return a.Std()
	case Sum:
		return a.Sum()
	case Count:
		return Of(float64(a.count))
	}
	return Value{}
}
