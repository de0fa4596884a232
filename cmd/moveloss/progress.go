package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// progressReader counts the bytes read through it.
type progressReader struct {
	r    io.Reader
	read *atomic.Int64
}

func newProgressReader(r io.Reader, counter *atomic.Int64) *progressReader {
	return &progressReader{r: r, read: counter}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read.Add(int64(n))
	return n, err
}

// progressLine rewrites a single status line on w at most twice a second.
type progressLine struct {
	w         io.Writer
	label     string
	bytes     *atomic.Int64
	start     time.Time
	sometimes rate.Sometimes
}

func newProgressLine(w io.Writer, label string, bytes *atomic.Int64) *progressLine {
	return &progressLine{
		w:         w,
		label:     label,
		bytes:     bytes,
		start:     time.Now(),
		sometimes: rate.Sometimes{Interval: 500 * time.Millisecond},
	}
}

// update prints done items and skipped ones, throttled.
func (p *progressLine) update(done, skipped int) {
	p.sometimes.Do(func() { p.print(done, skipped) })
}

// finish prints the final state and ends the line.
func (p *progressLine) finish(done, skipped int) {
	p.print(done, skipped)
	fmt.Fprintln(p.w)
}

func (p *progressLine) print(done, skipped int) {
	elapsed := time.Since(p.start)
	perSec := 0.0
	if s := elapsed.Seconds(); s > 0 {
		perSec = float64(done) / s
	}
	fmt.Fprintf(p.w, "\r[%s] %s done, %s skipped, %s read (%.1f/s, %s)",
		p.label,
		humanize.Comma(int64(done)),
		humanize.Comma(int64(skipped)),
		humanize.Bytes(uint64(p.bytes.Load())),
		perSec,
		formatDuration(elapsed),
	)
}

// formatDuration formats duration as human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
