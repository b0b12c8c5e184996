package indexer

import (
	"log/slog"
	"time"
)

// Progress receives build progress. The builder calls it from a single
// goroutine.
type Progress interface {
	Start(phase string, total int)
	Step(phase string, done int)
	Done(phase string, done int)
}

type NopProgress struct{}

func (NopProgress) Start(string, int) {}
func (NopProgress) Step(string, int)  {}
func (NopProgress) Done(string, int)  {}

// LogProgress logs every `every` steps of a phase. total is taken from
// Source.Count and may be zero when unknown.
type LogProgress struct {
	logger  *slog.Logger
	every   int
	total   int
	started time.Time
}

func NewLogProgress(logger *slog.Logger, every int) *LogProgress {
	if every < 1 {
		every = 1000
	}
	return &LogProgress{
		logger: logger.With("component", "build-progress"),
		every:  every,
	}
}

func (p *LogProgress) Start(phase string, total int) {
	p.total = total
	p.started = time.Now()
	p.logger.Info("phase started", "phase", phase, "total", total)
}

func (p *LogProgress) Step(phase string, done int) {
	if done%p.every != 0 {
		return
	}
	attrs := []any{"phase", phase, "done", done, "elapsed", time.Since(p.started).Round(time.Millisecond)}
	if p.total > 0 {
		attrs = append(attrs, "percent", done*100/p.total)
	}
	p.logger.Info("phase progress", attrs...)
}

func (p *LogProgress) Done(phase string, done int) {
	p.logger.Info("phase complete",
		"phase", phase,
		"count", done,
		"elapsed", time.Since(p.started).Round(time.Millisecond),
	)
}
