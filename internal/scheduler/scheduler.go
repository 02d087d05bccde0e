// Package scheduler runs the cooperative main loop: a fixed set of tasks,
// each due at its own cadence on the shared clock.
package scheduler

import (
	"context"
	"runtime"
	"sort"

	"github.com/sweeney/intersection-control/internal/clock"
)

// TimeSource is the clock the scheduler reads, in microseconds.
type TimeSource interface {
	Micros() clock.Ticks
}

// Task is a periodic job. Run must not block.
type Task struct {
	Name     string
	Interval clock.Ticks // µs
	Run      func()
}

type entry struct {
	Task
	last clock.Ticks
}

// Scheduler invokes due tasks, fastest cadence first.
type Scheduler struct {
	src   TimeSource
	tasks []*entry

	// Idle is called after every pass. Defaults to runtime.Gosched.
	Idle func()
}

// New creates a scheduler. Tasks are ordered by ascending interval; ties
// keep the given order.
func New(src TimeSource, tasks ...Task) *Scheduler {
	s := &Scheduler{src: src, Idle: runtime.Gosched}
	for _, t := range tasks {
		s.tasks = append(s.tasks, &entry{Task: t})
	}
	sort.SliceStable(s.tasks, func(i, j int) bool {
		return s.tasks[i].Interval < s.tasks[j].Interval
	})
	return s
}

// Tasks returns the task names in execution order.
func (s *Scheduler) Tasks() []string {
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.Name
	}
	return names
}

// RunPending makes one pass over the tasks and returns how many ran.
// The clock is re-read before each task.
func (s *Scheduler) RunPending() int {
	ran := 0
	for _, t := range s.tasks {
		now := s.src.Micros()
		if !clock.Due(now, t.last, t.Interval) {
			continue
		}
		t.Run()
		t.last = now
		ran++
	}
	return ran
}

// Run loops passes until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		s.RunPending()
		if s.Idle != nil {
			s.Idle()
		}
	}
}
