package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/discochess/moveloss/internal/metric"
	"github.com/discochess/moveloss/internal/record"
)

var (
	// ErrUnknownColumn is returned for a column name that cannot be resolved.
	ErrUnknownColumn = errors.New("aggregate: unknown column")

	// ErrUnknownAgg is returned for an unsupported aggregation.
	ErrUnknownAgg = errors.New("aggregate: unknown aggregation")
)

// Agg names a per-group aggregation.
type Agg string

// Supported aggregations.
const (
	Mean  Agg = "mean"
	Std   Agg = "std"
	Sum   Agg = "sum"
	Count Agg = "count"
)

// ParseAgg validates an aggregation name.
func ParseAgg(s string) (Agg, error) {
	switch g := Agg(s); g {
	case Mean, Std, Sum, Count:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgg, s)
}

// Column extracts one numeric value from a metrics record. Value reports
// false when the record has no value for the column.
type Column struct {
	Name  string
	Value func(record.Metrics) (float64, bool)
}

// Column names.
const (
	ColElo      = "elo"
	ColPly      = "ply"
	ColCE       = "ce"
	ColCE2      = "ce2"
	ColBestMove = "bestmove"
	ColScore    = "score"
	ColCPL      = "cpl"
	ColCPL2     = "cpl2"

	lossPrefix = "el_"
)

// LossColumn returns the column name of the expected loss under model.
func LossColumn(model string) string {
	return lossPrefix + model
}

func intColumn(name string, f func(record.Metrics) int) Column {
	return Column{Name: name, Value: func(m record.Metrics) (float64, bool) {
		return float64(f(m)), true
	}}
}

// ColumnByName resolves a column. floor is the outlier floor used by cpl2,
// which has no value for positions evaluated below it.
func ColumnByName(name string, floor int) (Column, error) {
	switch name {
	case ColElo:
		return intColumn(name, func(m record.Metrics) int { return m.Elo }), nil
	case ColPly:
		return intColumn(name, func(m record.Metrics) int { return m.Ply }), nil
	case ColCE:
		return intColumn(name, func(m record.Metrics) int { return m.CE }), nil
	case ColCE2:
		return intColumn(name, func(m record.Metrics) int { return m.CE2 }), nil
	case ColCPL:
		return intColumn(name, func(m record.Metrics) int { return m.CPL }), nil
	case ColBestMove:
		return Column{Name: name, Value: func(m record.Metrics) (float64, bool) {
			if m.IsBest {
				return 1, true
			}
			return 0, true
		}}, nil
	case ColScore:
		return Column{Name: name, Value: func(m record.Metrics) (float64, bool) {
			return m.Score, true
		}}, nil
	case ColCPL2:
		return Column{Name: name, Value: func(m record.Metrics) (float64, bool) {
			if metric.Excluded(m.CE, floor) {
				return 0, false
			}
			return float64(m.CPL), true
		}}, nil
	}

	if model, ok := strings.CutPrefix(name, lossPrefix); ok && model != "" {
		return Column{Name: name, Value: func(m record.Metrics) (float64, bool) {
			return m.Loss(model)
		}}, nil
	}
	return Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// Columns resolves several column names.
func Columns(names []string, floor int) ([]Column, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		c, err := ColumnByName(name, floor)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

// CellName is the table column name of agg applied to column.
func CellName(agg Agg, column string) string {
	return string(agg) + "(" + column + ")"
}
