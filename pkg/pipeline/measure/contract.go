package measure

import "time"

// Measure collects one Metric per stage.
type Measure interface {
	AddMetric(name, program string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
	// Names returns the metric names in insertion order.
	Names() []string
	// ProgramDurations sums the elapsed time of every stage per program.
	ProgramDurations() map[string]time.Duration
}

// Metric measures one stage.
type Metric interface {
	Program() string
	AddDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	AddLines(n int)
	Lines() int
	SetSucceeded(succeeded bool)
	Succeeded() bool
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
