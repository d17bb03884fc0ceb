package cron

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// maxJobs bounds the scheduler's job table, per spec.md's fixed-capacity
// array of 64.
const maxJobs = 64

// wakeInterval is how often the run loop checks for due jobs.
const wakeInterval = 30 * time.Second

// shutdownGranularity bounds how long Stop takes to take effect: the sleep
// between wake checks is broken into increments of this size.
const shutdownGranularity = 1 * time.Second

// Callback runs when a job fires, receiving its userdata.
type Callback func(userdata string)

// Job is one scheduled entry.
type Job struct {
	Name         string
	Expr         *Expression
	rawExpr      string
	Callback     Callback `json:"-"`
	Userdata     string
	LastFireUnix int64
	Active       bool
}

// Service owns a fixed-capacity job table and a run loop that wakes every
// wakeInterval to check for due jobs. Once Run has started, the job table
// is single-owner: all mutation happens from the run-loop goroutine.
type Service struct {
	jobs      []*Job
	stop      chan struct{}
	stopped   chan struct{}
	statePath string
}

// NewService builds an empty scheduler. statePath, if non-empty, is where
// the job table is persisted across restarts.
func NewService(statePath string) *Service {
	return &Service{stop: make(chan struct{}), stopped: make(chan struct{}), statePath: statePath}
}

// Add parses expr and appends a new job, returning an error if the table
// is full or the expression is invalid.
func (s *Service) Add(name, expr, userdata string, cb Callback) error {
	if len(s.jobs) >= maxJobs {
		return fmt.Errorf("cron: job table full (cap %d)", maxJobs)
	}
	parsed, err := Parse(expr)
	if err != nil {
		return err
	}
	s.jobs = append(s.jobs, &Job{Name: name, Expr: parsed, rawExpr: expr, Callback: cb, Userdata: userdata, Active: true})
	return nil
}

// Run blocks, waking every wakeInterval to fire due jobs, until Stop is
// called. Shutdown latency is bounded by shutdownGranularity.
func (s *Service) Run() {
	defer close(s.stopped)
	for {
		if s.sleepInterruptibly(wakeInterval) {
			return
		}
		s.tick(time.Now())
	}
}

// sleepInterruptibly waits for d in shutdownGranularity increments,
// returning true early if Stop fires during the wait.
func (s *Service) sleepInterruptibly(d time.Duration) bool {
	elapsed := time.Duration(0)
	for elapsed < d {
		select {
		case <-s.stop:
			return true
		case <-time.After(shutdownGranularity):
			elapsed += shutdownGranularity
		}
	}
	return false
}

// tick fires every active job whose expression matches now and that has
// not already fired within the current minute.
func (s *Service) tick(now time.Time) {
	minuteAnchor := now.Unix() - now.Unix()%60
	t := Time{Minute: now.Minute(), Hour: now.Hour(), Dom: now.Day(), Month: int(now.Month()), Dow: int(now.Weekday())}

	for _, job := range s.jobs {
		if !job.Active || job.LastFireUnix == minuteAnchor {
			continue
		}
		if !job.Expr.Matches(t) {
			continue
		}
		job.LastFireUnix = minuteAnchor
		log.Printf("[cron] firing %s", job.Name)
		if job.Callback != nil {
			job.Callback(job.Userdata)
		}
	}
	if s.statePath != "" {
		if err := s.save(); err != nil {
			log.Printf("[cron] persist state failed: %v", err)
		}
	}
}

// Stop signals the run loop to exit and waits until Run has returned. If
// Run is never started, Stop does not return.
func (s *Service) Stop() {
	close(s.stop)
	<-s.stopped
}

type persistedJob struct {
	Name         string `json:"name"`
	Expr         string `json:"expr"`
	Userdata     string `json:"userdata"`
	LastFireUnix int64  `json:"last_fire_unix"`
	Active       bool   `json:"active"`
}

// save writes the job table (minus callbacks, which cannot be serialized)
// to statePath so a restart does not silently drop scheduled work.
func (s *Service) save() error {
	out := make([]persistedJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, persistedJob{Name: j.Name, Expr: j.rawExpr, Userdata: j.Userdata, LastFireUnix: j.LastFireUnix, Active: j.Active})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(s.statePath, data, 0o644)
}

// Load restores job metadata from statePath, rebinding each restored job
// to cb (callbacks are looked up by name, not serialized). Jobs whose name
// isn't in cb are skipped with a log line rather than failing the load.
func (s *Service) Load(statePath string, cb func(name string) Callback) error {
	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cron state: %w", err)
	}
	var restored []persistedJob
	if err := json.Unmarshal(data, &restored); err != nil {
		return fmt.Errorf("parse cron state: %w", err)
	}

	for _, pj := range restored {
		handler := cb(pj.Name)
		if handler == nil {
			log.Printf("[cron] no handler registered for restored job %q, skipping", pj.Name)
			continue
		}
		if err := s.Add(pj.Name, pj.Expr, pj.Userdata, handler); err != nil {
			log.Printf("[cron] failed to restore job %q: %v", pj.Name, err)
			continue
		}
		s.jobs[len(s.jobs)-1].LastFireUnix = pj.LastFireUnix
		s.jobs[len(s.jobs)-1].Active = pj.Active
	}
	return nil
}

// Jobs returns a snapshot of the current job table, for inspection.
func (s *Service) Jobs() []*Job { return s.jobs }
