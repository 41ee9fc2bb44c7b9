package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubCanceller struct {
	count int
	err   error
	calls int
}

func (s *stubCanceller) CancelMissedSessions(ctx context.Context) (int, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return s.count, s.err
}

func TestMissedSessionSweeperRunCallsService(t *testing.T) {
	stub := &stubCanceller{count: 3}
	NewMissedSessionSweeper(stub).Run()

	if stub.calls != 1 {
		t.Fatalf("expected one call, got %d", stub.calls)
	}
}

func TestMissedSessionSweeperRunSwallowsErrors(t *testing.T) {
	stub := &stubCanceller{err: errors.New("database unavailable")}
	NewMissedSessionSweeper(stub).Run()

	if stub.calls != 1 {
		t.Fatalf("expected one call, got %d", stub.calls)
	}
}

func TestScheduleRegistersSweeper(t *testing.T) {
	scheduler, err := Schedule("*/15 * * * *", time.UTC, NewMissedSessionSweeper(&stubCanceller{}))
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if got := len(scheduler.Entries()); got != 1 {
		t.Fatalf("expected 1 cron entry, got %d", got)
	}
}

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	if _, err := Schedule("every quarter hour", time.UTC, NewMissedSessionSweeper(&stubCanceller{})); err == nil {
		t.Fatal("expected invalid cron spec to fail")
	}
}
