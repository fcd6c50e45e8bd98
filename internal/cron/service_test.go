package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	locked   bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.locked {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	return nil
}

type testJob struct {
	name string
	runs int
	err  error
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	lock := &fakeLock{}
	failing := &testJob{name: "failing", err: errors.New("boom")}
	healthy := &testJob{name: "healthy"}
	svc := newTestService(t, lock, failing, healthy)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if failing.runs != 1 || healthy.runs != 1 {
		t.Fatalf("expected each job to run once, got failing=%d healthy=%d", failing.runs, healthy.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := &fakeLock{locked: true}
	job := &testJob{name: "sweep"}
	svc := newTestService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no job runs while lock held, got %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("lock must not be released when never acquired, got %d releases", lock.releases)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err == nil {
		t.Fatal("expected error when lock is missing")
	}
}
