// Package measure times the stages of a run and counts the lines they print.
package measure

import (
	"sync"
	"time"
)

type DefaultMeasure struct {
	mu    *sync.Mutex
	Steps map[string]Metric
	names []string
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		mu:    &sync.Mutex{},
		Steps: make(map[string]Metric),
	}
}

// AddMetric returns the metric of name, creating it on first use.
func (m *DefaultMeasure) AddMetric(name, program string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.Steps[name]; ok {
		return mt
	}

	mt := &DefaultMetric{
		mu:      &sync.Mutex{},
		program: program,
	}
	m.Steps[name] = mt
	m.names = append(m.names, name)

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Metric, len(m.Steps))
	for name, mt := range m.Steps {
		out[name] = mt
	}

	return out
}

func (m *DefaultMeasure) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.names...)
}

func (m *DefaultMeasure) ProgramDurations() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, mt := range m.AllMetrics() {
		if mt.Program() == "" {
			continue
		}

		out[mt.Program()] += mt.AVGDuration()
	}

	return out
}

var _ Measure = (*DefaultMeasure)(nil)
