// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cron

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/safe"
	"github.com/robfig/cron"
)

var (
	// ErrNotInitialized is returned when trying to use global cron before initialization
	ErrNotInitialized = errors.New("global cron instance is not initialized")
	// ErrDuplicateName is returned when a job name is registered twice
	ErrDuplicateName = errors.New("cron job name already registered")
)

// Entry describes one registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

// namedJob 包一层 recover 与耗时日志，避免单个任务 panic 影响调度器
type namedJob struct {
	name string
	spec string
	fn   func()
}

func (j *namedJob) Run() {
	start := time.Now()
	safe.Do(j.fn)
	log.Debugw("cron job finished", "job", j.name, "elapsed", time.Since(start).String())
}

// Scheduler wraps robfig/cron with named jobs.
type Scheduler struct {
	mu    sync.Mutex
	c     *cron.Cron
	names map[string]struct{}
}

// New creates a scheduler in the local time zone.
func New() *Scheduler {
	return &Scheduler{c: cron.New(), names: make(map[string]struct{})}
}

// AddFunc registers fn under a unique name. spec accepts six-field cron
// expressions and descriptors such as "@every 2h".
func (s *Scheduler) AddFunc(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	schedule, err := cron.Parse(spec)
	if err != nil {
		return fmt.Errorf("parse cron spec %q for %s: %w", spec, name, err)
	}
	s.c.Schedule(schedule, &namedJob{name: name, spec: spec, fn: fn})
	s.names[name] = struct{}{}
	log.Infow("cron job registered", "job", name, "spec", spec)
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop stops the scheduler; running jobs are not interrupted.
func (s *Scheduler) Stop() {
	s.c.Stop()
}

// Entries returns registered jobs sorted by name.
func (s *Scheduler) Entries() []Entry {
	var out []Entry
	for _, e := range s.c.Entries() {
		j, ok := e.Job.(*namedJob)
		if !ok {
			continue
		}
		out = append(out, Entry{Name: j.name, Spec: j.spec, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

var (
	globalCron *Scheduler
	globalMu   sync.RWMutex
	once       sync.Once
)

// Init initializes the global scheduler
func Init() {
	once.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		globalCron = New()
	})
}

// Get returns the global scheduler, nil if not initialized
func Get() *Scheduler {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCron
}

// Start starts the global scheduler
func Start() {
	if c := Get(); c != nil {
		c.Start()
	}
}

// Stop stops the global scheduler
func Stop() {
	if c := Get(); c != nil {
		c.Stop()
	}
}

// AddFunc adds a named func to the global scheduler
func AddFunc(name, spec string, fn func()) error {
	c := Get()
	if c == nil {
		return ErrNotInitialized
	}
	return c.AddFunc(name, spec, fn)
}
