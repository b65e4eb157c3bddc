package utils

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// --- WaitFor ---

func TestWaitFor_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), time.Second, 10*time.Millisecond, func() (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWaitFor_SucceedsAfterPolls(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWaitFor_Timeout(t *testing.T) {
	err := WaitFor(context.Background(), 30*time.Millisecond, 5*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestWaitFor_CheckErrorStopsPolling(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WaitFor(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected check error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWaitFor_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitFor(ctx, time.Second, time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// --- PID files ---

func TestPIDFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.pid")
	if err := WritePIDFile(path, 4242); err != nil {
		t.Fatalf("write: %v", err)
	}
	pid, err := ReadPIDFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if pid != 4242 {
		t.Errorf("expected 4242, got %d", pid)
	}
}

func TestReadPIDFile_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadPIDFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReadPIDFile_Missing(t *testing.T) {
	if _, err := ReadPIDFile(filepath.Join(t.TempDir(), "absent.pid")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// --- process liveness / termination ---

func TestIsProcessAlive(t *testing.T) {
	if !IsProcessAlive(os.Getpid()) {
		t.Error("expected own PID to be alive")
	}
	if IsProcessAlive(0) || IsProcessAlive(-1) {
		t.Error("expected non-positive PIDs to be dead")
	}
}

func TestTerminatePID_DeadPIDIsNoop(t *testing.T) {
	// Spawn and reap a child so its PID is known-dead.
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	pid := cmd.Process.Pid
	if err := TerminatePID(context.Background(), pid, time.Second); err != nil {
		t.Errorf("expected no-op for dead PID, got %v", err)
	}
}

func TestTerminatePID_KillsSleeper(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	done := make(chan struct{})
	go func() { _ = cmd.Wait(); close(done) }()

	if err := TerminatePID(context.Background(), pid, 2*time.Second); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sleeper did not exit")
	}
}

// --- EnsureDirs ---

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	a := filepath.Join(base, "run", "dev1")
	b := filepath.Join(base, "log", "dev1")
	if err := EnsureDirs(a, b); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, p := range []string{a, b} {
		st, err := os.Stat(p)
		if err != nil || !st.IsDir() {
			t.Errorf("expected dir at %s: %v", p, err)
		}
	}
	// Second call is idempotent.
	if err := EnsureDirs(a, b); err != nil {
		t.Errorf("expected idempotent ensure, got %v", err)
	}
}

func TestEnsureDirs_FileCollision(t *testing.T) {
	base := t.TempDir()
	f := filepath.Join(base, "occupied")
	if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := EnsureDirs(f); err == nil {
		t.Fatal("expected error creating dir over file")
	}
}
