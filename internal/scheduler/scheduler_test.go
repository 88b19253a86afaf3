package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jdowell/mlmbot/pkg/config"
	"github.com/jdowell/mlmbot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// fakeJob counts runs and fails a configurable number of times.
type fakeJob struct {
	name      string
	retryable bool
	failures  int32
	runs      int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return "0 0 0 1 1 *" } // effectively never
func (j *fakeJob) Retryable() bool  { return j.retryable }

func (j *fakeJob) Run(context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return fmt.Errorf("simulated failure %d", n)
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(testLogger())
	s.retryDelay = time.Millisecond
	return s
}

func waitForRuns(t *testing.T, job *fakeJob, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&job.runs) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job ran %d times, want at least %d", atomic.LoadInt32(&job.runs), want)
}

func waitForHistory(t *testing.T, s *Scheduler, name string) *JobHistory {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		history, err := s.GetJobHistory(name)
		if err == nil && len(history.Results) > 0 {
			return history
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no history recorded for %s", name)
	return nil
}

func TestAddJob_DuplicateRejected(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "dup"}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob(job); err == nil {
		t.Error("duplicate job name should be rejected")
	}
}

func TestRunJob_RecordsHistory(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "history"}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.RunJob("history"); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	history := waitForHistory(t, s, "history")
	latest := history.Latest()
	if latest == nil || !latest.Success {
		t.Errorf("latest = %+v, want a successful run", latest)
	}
	if history.SuccessRate() != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", history.SuccessRate())
	}
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := newTestScheduler()
	if err := s.RunJob("missing"); err == nil {
		t.Error("unknown job should error")
	}
}

func TestRunJob_RetryableRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", retryable: true, failures: 2}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.RunJob("flaky"); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	waitForRuns(t, job, 3)
	history := waitForHistory(t, s, "flaky")
	if latest := history.Latest(); latest == nil || !latest.Success {
		t.Error("job should succeed after retries")
	}
}

func TestRunJob_NonRetryableRunsOnce(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "once", retryable: false, failures: 1}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.RunJob("once"); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	history := waitForHistory(t, s, "once")
	if got := atomic.LoadInt32(&job.runs); got != 1 {
		t.Errorf("job ran %d times, want exactly 1", got)
	}
	if latest := history.Latest(); latest == nil || latest.Success {
		t.Error("failed non-retryable run should be recorded as a failure")
	}
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler()
	for _, name := range []string{"b", "a"} {
		if err := s.AddJob(&fakeJob{name: name}); err != nil {
			t.Fatalf("AddJob(%s): %v", name, err)
		}
	}

	stats := s.GetJobStats()
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}
	if stats[0].JobName != "a" || stats[1].JobName != "b" {
		t.Error("stats should be sorted by job name")
	}
}
