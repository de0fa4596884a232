package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/discochess/moveloss/internal/record"
)

// ErrInvalidBucket is returned for a malformed bucket specification.
var ErrInvalidBucket = errors.New("aggregate: invalid bucket spec")

// Dimension is a numeric record field records can be bucketed by.
type Dimension string

// Bucket dimensions.
const (
	DimElo Dimension = "elo"
	DimPly Dimension = "ply"
	DimCE  Dimension = "ce"
)

func (d Dimension) value(m record.Metrics) (int, bool) {
	switch d {
	case DimElo:
		return m.Elo, true
	case DimPly:
		return m.Ply, true
	case DimCE:
		return m.CE, true
	}
	return 0, false
}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case DimElo, DimPly, DimCE:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown dimension %q", ErrInvalidBucket, s)
}

// BucketSpec declares one bucketed report. Edges run from Start in steps
// of Width while below Stop; each bucket covers (lo, hi].
type BucketSpec struct {
	Name      string
	Dimension Dimension
	Start     int
	Stop      int
	Width     int
	Columns   []string
	Aggs      []Agg

	// OutlierFloor overrides the report-wide floor for cpl2 when set.
	OutlierFloor *int
}

// Validate checks the spec's shape.
func (s BucketSpec) Validate() error {
	if _, err := ParseDimension(string(s.Dimension)); err != nil {
		return err
	}
	if s.Width <= 0 {
		return fmt.Errorf("%w: %s: width must be positive", ErrInvalidBucket, s.Dimension)
	}
	if s.Start+s.Width >= s.Stop {
		return fmt.Errorf("%w: %s: range [%d, %d) holds no bucket", ErrInvalidBucket, s.Dimension, s.Start, s.Stop)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: %s: no columns", ErrInvalidBucket, s.Dimension)
	}
	for _, a := range s.Aggs {
		if _, err := ParseAgg(string(a)); err != nil {
			return err
		}
	}
	return nil
}

// Edges returns the bucket boundaries.
func (s BucketSpec) Edges() []int {
	var edges []int
	for e := s.Start; e < s.Stop; e += s.Width {
		edges = append(edges, e)
	}
	return edges
}

// BucketLabel renders the interval (lo, hi].
func BucketLabel(lo, hi int) string {
	return fmt.Sprintf("(%d, %d]", lo, hi)
}

// Buckets aggregates records per interval of the spec's dimension. Every
// bucket gets a row; records outside all buckets are ignored. floor applies
// to cpl2 unless the spec overrides it.
func Buckets(records []record.Metrics, spec BucketSpec, floor int) (Table, error) {
	if err := spec.Validate(); err != nil {
		return Table{}, err
	}
	if spec.OutlierFloor != nil {
		floor = *spec.OutlierFloor
	}
	cols, err := Columns(spec.Columns, floor)
	if err != nil {
		return Table{}, err
	}
	aggs := spec.Aggs
	if len(aggs) == 0 {
		aggs = []Agg{Mean}
	}

	edges := spec.Edges()
	g := newGrouper(len(cols))
	groups := make([]*group, len(edges)-1)
	for i := range groups {
		groups[i] = g.get([]string{BucketLabel(edges[i], edges[i+1])})
	}

	for _, m := range records {
		v, _ := spec.Dimension.value(m)
		if i := bucketIndex(edges, v); i >= 0 {
			gr := groups[i]
			gr.rows++
			for c, col := range cols {
				if x, ok := col.Value(m); ok {
					gr.accs[c].Add(x)
				}
			}
		}
	}

	return aggTable([]string{string(spec.Dimension)}, groups, cols, aggs), nil
}

// bucketIndex returns i such that edges[i] < v <= edges[i+1], or -1.
func bucketIndex(edges []int, v int) int {
	if len(edges) < 2 || v <= edges[0] || v > edges[len(edges)-1] {
		return -1
	}
	// First edge >= v closes the bucket.
	return sort.SearchInts(edges, v) - 1
}
