// Package tracing times the phases of a run as a tree of spans carried
// through contexts and reported as structured slog records.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey string

const phaseKey contextKey = "run_phase"

// Phase is one timed stage of a run. Child phases nest under the phase
// found in the context they were started from.
type Phase struct {
	Name    string
	Started time.Time
	Elapsed time.Duration

	mu       sync.Mutex
	attrs    []any
	children []*Phase
}

// Begin starts a phase. When ctx already carries a phase the new one is
// recorded as its child, otherwise it becomes a root.
func Begin(ctx context.Context, name string) (context.Context, *Phase) {
	p := &Phase{Name: name, Started: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, p)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, phaseKey, p), p
}

// FromContext returns the innermost phase in ctx, or nil.
func FromContext(ctx context.Context) *Phase {
	if p, ok := ctx.Value(phaseKey).(*Phase); ok {
		return p
	}
	return nil
}

// Done fixes the phase's elapsed time. Attrs added later still appear in
// the report.
func (p *Phase) Done() {
	p.Elapsed = time.Since(p.Started)
}

// Attr attaches a key/value pair reported alongside the phase timing.
func (p *Phase) Attr(key string, value any) {
	p.mu.Lock()
	p.attrs = append(p.attrs, key, value)
	p.mu.Unlock()
}

// Report logs the phase and its subtree at debug level, one record per
// phase with its nesting depth.
func (p *Phase) Report() {
	p.report(0)
}

func (p *Phase) report(depth int) {
	elapsed := p.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(p.Started)
	}
	attrs := []any{
		"phase", p.Name,
		"elapsed_ms", elapsed.Milliseconds(),
		"depth", depth,
	}
	p.mu.Lock()
	attrs = append(attrs, p.attrs...)
	children := p.children
	p.mu.Unlock()
	slog.Debug("phase", attrs...)

	for _, child := range children {
		child.report(depth + 1)
	}
}
