package measure

import (
	"sync"
	"time"
)

type DefaultMetric struct {
	mu          *sync.Mutex
	program     string
	EndDuration time.Duration
	stepElapsed time.Duration
	total       int64
	lines       int
	succeeded   bool
}

func (mt *DefaultMetric) Program() string {
	return mt.program
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

func (mt *DefaultMetric) AddLines(n int) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.lines += n
}

func (mt *DefaultMetric) Lines() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.lines
}

func (mt *DefaultMetric) SetSucceeded(succeeded bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.succeeded = succeeded
}

func (mt *DefaultMetric) Succeeded() bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.succeeded
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.EndDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.EndDuration
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Minute)
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

var _ Metric = (*DefaultMetric)(nil)
