package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	applog "duitbot/internal/log"
)

func TestNextRun(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "before the hour fires today",
			now:  time.Date(2026, 1, 15, 9, 30, 0, 0, loc),
			hour: 15,
			want: time.Date(2026, 1, 15, 15, 0, 0, 0, loc),
		},
		{
			name: "after the hour fires tomorrow",
			now:  time.Date(2026, 1, 15, 16, 0, 0, 0, loc),
			hour: 15,
			want: time.Date(2026, 1, 16, 15, 0, 0, 0, loc),
		},
		{
			name: "exactly the hour fires tomorrow",
			now:  time.Date(2026, 1, 15, 15, 0, 0, 0, loc),
			hour: 15,
			want: time.Date(2026, 1, 16, 15, 0, 0, 0, loc),
		},
		{
			name: "month rollover",
			now:  time.Date(2026, 1, 31, 22, 0, 0, 0, loc),
			hour: 21,
			want: time.Date(2026, 2, 1, 21, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRun(tt.now, tt.hour)
			if !got.Equal(tt.want) {
				t.Errorf("nextRun(%v, %d) = %v, want %v", tt.now, tt.hour, got, tt.want)
			}
		})
	}
}

type countingJob struct {
	mu   sync.Mutex
	runs []time.Time
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(_ context.Context, now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, now)
	return nil
}

func TestScheduler_RunFiresAtConfiguredHour(t *testing.T) {
	loc := time.UTC
	job := &countingJob{}
	s := New(job, 15, loc, applog.New(applog.DefaultConfig()))

	clock := time.Date(2026, 1, 15, 14, 0, 0, 0, loc)
	s.now = func() time.Time { return clock }

	fired := 0
	s.sleep = func(ctx context.Context, d time.Duration) error {
		fired++
		if fired == 1 {
			if d != time.Hour {
				t.Errorf("first sleep duration = %v, want 1h", d)
			}
			clock = clock.Add(d)
			return nil
		}
		return context.Canceled
	}

	if err := s.Run(context.Background()); err != context.Canceled {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if len(job.runs) != 1 {
		t.Fatalf("job ran %d times, want 1", len(job.runs))
	}
	want := time.Date(2026, 1, 15, 15, 0, 0, 0, loc)
	if !job.runs[0].Equal(want) {
		t.Errorf("job ran at %v, want %v", job.runs[0], want)
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := New(&countingJob{}, 15, time.UTC, applog.New(applog.DefaultConfig()))
	s.sleep = func(ctx context.Context, d time.Duration) error {
		return context.DeadlineExceeded
	}

	if err := s.Run(context.Background()); err != context.DeadlineExceeded {
		t.Fatalf("Run() = %v, want deadline error from sleep", err)
	}
}
