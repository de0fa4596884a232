// Package config loads the reporting policy of the stats command: outlier
// floor, WDL models, bucket layouts, columns and number formatting.
package config

import (
	"errors"
	"fmt"

	"github.com/discochess/moveloss/internal/aggregate"
	"github.com/discochess/moveloss/internal/metric"
	"github.com/discochess/moveloss/internal/wdl"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("config: invalid policy")
	ErrLoadConfig    = errors.New("config: load failed")
)

// Policy is the reporting policy.
type Policy struct {
	// OutlierFloor excludes positions evaluated below it from cpl2 and acpl2.
	OutlierFloor int `koanf:"outlier_floor"`

	// Models names the WDL models expected losses are computed under.
	Models []string `koanf:"models"`

	// Columns and Aggs shape the per-player move report and every bucket
	// that names none. Empty Columns selects elo, bestmove, cpl and one
	// loss column per model.
	Columns []string `koanf:"columns"`
	Aggs    []string `koanf:"aggs"`

	Buckets []Bucket `koanf:"buckets"`

	Decimals Decimals `koanf:"decimals"`
}

// Bucket is one bucketed report.
type Bucket struct {
	Name      string   `koanf:"name"`
	Dimension string   `koanf:"dimension"`
	Start     int      `koanf:"start"`
	Stop      int      `koanf:"stop"`
	Width     int      `koanf:"width"`
	Columns   []string `koanf:"columns"`
	Aggs      []string `koanf:"aggs"`

	// OutlierFloor overrides the policy floor for this report.
	OutlierFloor *int `koanf:"outlier_floor"`
}

// Decimals sets the printed precision of the report sections.
type Decimals struct {
	// General covers the raw data and the bucketed move statistics.
	General int `koanf:"general"`
	// Players covers the correlations and the per-player sections.
	Players int `koanf:"players"`
}

// Default returns the policy of the original reports.
func Default() *Policy {
	p := &Policy{
		OutlierFloor: metric.DefaultOutlierFloor,
		Models:       []string{wdl.SF, wdl.Lichess},
		Aggs:         []string{string(aggregate.Mean)},
		Decimals:     Decimals{General: 3, Players: 4},
	}
	for _, b := range aggregate.DefaultBuckets() {
		p.Buckets = append(p.Buckets, Bucket{
			Name:      b.Name,
			Dimension: string(b.Dimension),
			Start:     b.Start,
			Stop:      b.Stop,
			Width:     b.Width,
		})
	}
	return p
}

// Validate checks that every name in the policy resolves and that the
// bucket layouts are usable.
func (p *Policy) Validate() error {
	if p.Decimals.General < 0 || p.Decimals.Players < 0 {
		return fmt.Errorf("%w: decimals must not be negative", ErrInvalidConfig)
	}
	opts, err := p.AggregateOptions()
	if err != nil {
		return err
	}
	if _, err := aggregate.New(opts...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AggregateOptions converts the policy into aggregation engine options.
func (p *Policy) AggregateOptions() ([]aggregate.Option, error) {
	if len(p.Models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrInvalidConfig)
	}
	models, err := wdl.Models(p.Models...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	aggs, err := parseAggs(p.Aggs)
	if err != nil {
		return nil, err
	}

	specs := make([]aggregate.BucketSpec, 0, len(p.Buckets))
	for i, b := range p.Buckets {
		dim, err := aggregate.ParseDimension(b.Dimension)
		if err != nil {
			return nil, fmt.Errorf("%w: bucket %d: %w", ErrInvalidConfig, i, err)
		}
		bucketAggs, err := parseAggs(b.Aggs)
		if err != nil {
			return nil, err
		}
		name := b.Name
		if name == "" {
			name = b.Dimension
		}
		specs = append(specs, aggregate.BucketSpec{
			Name:         name,
			Dimension:    dim,
			Start:        b.Start,
			Stop:         b.Stop,
			Width:        b.Width,
			Columns:      b.Columns,
			Aggs:         bucketAggs,
			OutlierFloor: b.OutlierFloor,
		})
	}

	return []aggregate.Option{
		aggregate.WithModels(models...),
		aggregate.WithOutlierFloor(p.OutlierFloor),
		aggregate.WithColumns(p.Columns...),
		aggregate.WithAggs(aggs...),
		aggregate.WithBuckets(specs...),
	}, nil
}

func parseAggs(names []string) ([]aggregate.Agg, error) {
	var aggs []aggregate.Agg
	for _, n := range names {
		g, err := aggregate.ParseAgg(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		aggs = append(aggs, g)
	}
	return aggs, nil
}
