package main

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobKind names a recurring or one-shot world job
type JobKind string

const (
	JobMotion      JobKind = "motion"
	JobProjectiles JobKind = "projectiles"
	JobMines       JobKind = "mines"
	JobAI          JobKind = "ai"
	JobCleanup     JobKind = "cleanup"
	JobPersist     JobKind = "persist"
	JobReset       JobKind = "reset"
)

// Clock supplies the current time. Tests swap in a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// TickFunc is a job handler. delta is the time since the job's previous
// invocation; the first invocation measures from registration.
type TickFunc func(now time.Time, delta time.Duration) error

type jobKey struct {
	world string
	kind  JobKind
}

type job struct {
	key      jobKey
	interval time.Duration
	at       time.Time
	oneShot  bool
	fn       TickFunc

	mu       sync.Mutex // serializes runs of this job
	lastTick time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func (j *job) halt() {
	j.stopOnce.Do(func() { close(j.stop) })
}

// Scheduler runs per-world jobs at fixed intervals and one-shot jobs at a
// given time. At most one job of each kind exists per world. Handler errors
// are logged and counted; the job keeps its schedule.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	jobs    map[jobKey]*job
	manual  bool
	log     zerolog.Logger
	metrics *Metrics
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithClock replaces the system clock
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithManualTicks disables the timer goroutines; jobs only run through
// Fire and RunDue
func WithManualTicks() SchedulerOption {
	return func(s *Scheduler) { s.manual = true }
}

// WithMetrics records job invocations on m
func WithMetrics(m *Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler creates an empty scheduler
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock: systemClock{},
		jobs:  make(map[jobKey]*job),
		log:   Logger.With().Str("component", "scheduler").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Every starts a recurring job. Returns false if the world already runs a
// job of this kind.
func (s *Scheduler) Every(worldID string, kind JobKind, interval time.Duration, fn TickFunc) bool {
	if interval <= 0 {
		return false
	}
	j := &job{
		key:      jobKey{worldID, kind},
		interval: interval,
		fn:       fn,
		stop:     make(chan struct{}),
	}
	if !s.add(j) {
		return false
	}
	if !s.manual {
		go s.loop(j)
	}
	return true
}

// At schedules a one-shot job. Returns false if the world already has a job
// of this kind.
func (s *Scheduler) At(worldID string, kind JobKind, when time.Time, fn TickFunc) bool {
	j := &job{
		key:     jobKey{worldID, kind},
		at:      when,
		oneShot: true,
		fn:      fn,
		stop:    make(chan struct{}),
	}
	if !s.add(j) {
		return false
	}
	if !s.manual {
		go s.wait(j)
	}
	return true
}

func (s *Scheduler) add(j *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.key]; ok {
		return false
	}
	j.lastTick = s.clock.Now()
	s.jobs[j.key] = j
	return true
}

func (s *Scheduler) loop(j *job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.run(j)
		case <-j.stop:
			return
		}
	}
}

func (s *Scheduler) wait(j *job) {
	timer := time.NewTimer(time.Until(j.at))
	defer timer.Stop()
	select {
	case <-timer.C:
		s.run(j)
	case <-j.stop:
	}
}

// run invokes a job once with the elapsed time since its previous run
func (s *Scheduler) run(j *job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	select {
	case <-j.stop:
		return
	default:
	}

	now := s.clock.Now()
	delta := now.Sub(j.lastTick)
	if delta < 0 {
		delta = 0
	}
	j.lastTick = now

	start := time.Now()
	err := j.fn(now, delta)
	s.metrics.RecordTick(j.key.kind, time.Since(start), err)
	if err != nil {
		s.log.Error().Err(err).
			Str("world", j.key.world).
			Str("job", string(j.key.kind)).
			Msg("tick failed, rolled back")
	}
	if j.oneShot {
		s.remove(j)
	}
}

func (s *Scheduler) remove(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs[j.key] == j {
		delete(s.jobs, j.key)
	}
	j.halt()
}

// Stop cancels a job. Stopping a job that is not running is a no-op.
func (s *Scheduler) Stop(worldID string, kind JobKind) {
	s.mu.Lock()
	j := s.jobs[jobKey{worldID, kind}]
	delete(s.jobs, jobKey{worldID, kind})
	s.mu.Unlock()
	if j != nil {
		j.halt()
	}
}

// StopWorld cancels every job of a world
func (s *Scheduler) StopWorld(worldID string) {
	s.mu.Lock()
	var stopped []*job
	for k, j := range s.jobs {
		if k.world == worldID {
			stopped = append(stopped, j)
			delete(s.jobs, k)
		}
	}
	s.mu.Unlock()
	for _, j := range stopped {
		j.halt()
	}
}

// Close cancels every job
func (s *Scheduler) Close() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[jobKey]*job)
	s.mu.Unlock()
	for _, j := range jobs {
		j.halt()
	}
}

// Running reports whether the world has a job of this kind
func (s *Scheduler) Running(worldID string, kind JobKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[jobKey{worldID, kind}]
	return ok
}

// Jobs lists the job kinds registered for a world, sorted
func (s *Scheduler) Jobs(worldID string) []JobKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []JobKind
	for k := range s.jobs {
		if k.world == worldID {
			out = append(out, k.kind)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fire runs a registered job immediately. Returns false if no such job.
func (s *Scheduler) Fire(worldID string, kind JobKind) bool {
	s.mu.Lock()
	j := s.jobs[jobKey{worldID, kind}]
	s.mu.Unlock()
	if j == nil {
		return false
	}
	s.run(j)
	return true
}

// RunDue runs every job whose interval or due time has passed on the clock.
// Used with manual ticks.
func (s *Scheduler) RunDue() int {
	now := s.clock.Now()
	s.mu.Lock()
	all := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, j)
	}
	s.mu.Unlock()
	var due []*job
	for _, j := range all {
		j.mu.Lock()
		ready := (j.oneShot && !now.Before(j.at)) || (!j.oneShot && now.Sub(j.lastTick) >= j.interval)
		j.mu.Unlock()
		if ready {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(a, b int) bool {
		if due[a].key.world != due[b].key.world {
			return due[a].key.world < due[b].key.world
		}
		return due[a].key.kind < due[b].key.kind
	})
	for _, j := range due {
		s.run(j)
	}
	return len(due)
}
