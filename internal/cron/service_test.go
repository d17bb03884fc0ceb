package cron

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAddRejectsInvalidExpression(t *testing.T) {
	s := NewService("")
	if err := s.Add("bad", "not a cron", "", nil); err == nil {
		t.Fatal("expected error for invalid expression")
	}
}

func TestAddEnforcesCapacity(t *testing.T) {
	s := NewService("")
	for i := 0; i < maxJobs; i++ {
		if err := s.Add(string(rune('a'+i%26)), "* * * * *", "", nil); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}
	if err := s.Add("overflow", "* * * * *", "", nil); err == nil {
		t.Fatal("expected capacity error on 65th job")
	}
}

func TestTickFiresMatchingJobOncePerMinute(t *testing.T) {
	s := NewService("")
	fired := 0
	if err := s.Add("every-minute", "* * * * *", "", func(string) { fired++ }); err != nil {
		t.Fatalf("Add: %v", err)
	}

	now := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	s.tick(now)
	if fired != 1 {
		t.Fatalf("expected 1 fire, got %d", fired)
	}

	// Same minute again: dedupe should suppress a second fire.
	s.tick(now.Add(20 * time.Second))
	if fired != 1 {
		t.Fatalf("expected dedupe within the same minute, got %d fires", fired)
	}

	// Next minute: fires again.
	s.tick(now.Add(60 * time.Second))
	if fired != 2 {
		t.Fatalf("expected a second fire in the next minute, got %d", fired)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cron.json")
	s := NewService(path)
	if err := s.Add("job-a", "*/5 * * * *", "payload", func(string) {}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := NewService(path)
	err := restored.Load(path, func(name string) Callback {
		if name == "job-a" {
			return func(string) {}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(restored.Jobs()) != 1 || restored.Jobs()[0].Name != "job-a" {
		t.Fatalf("unexpected restored jobs: %+v", restored.Jobs())
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	s := NewService("")
	if err := s.Load(filepath.Join(t.TempDir(), "missing.json"), func(string) Callback { return nil }); err != nil {
		t.Fatalf("expected no error for missing state file, got %v", err)
	}
}

func TestStopUnblocksRun(t *testing.T) {
	s := NewService("")
	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()
	s.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not exit after Stop")
	}
}
