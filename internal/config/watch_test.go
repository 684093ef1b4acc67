package config

import (
	"os"
	"path/filepath"
	"time"

	"testing"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	// Register cleanup so the Overload inside the watcher cannot leak
	// into other tests.
	t.Setenv("SIPSTREAM_SIP_THRESHOLD_ML", "")
	t.Setenv("SIPSTREAM_SIP_GAP", "")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SIPSTREAM_SIP_THRESHOLD_ML=0.5\n"), 0o644); err != nil {
		t.Fatalf("failed to seed env file: %v", err)
	}

	w, err := NewWatcher(envFile)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	content := "SIPSTREAM_SIP_THRESHOLD_ML=1.5\nSIPSTREAM_SIP_GAP=4s\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to rewrite env file: %v", err)
	}

	select {
	case ev := <-w.Events():
		if ev.Error != nil {
			t.Fatalf("unexpected watch error: %v", ev.Error)
		}
		if ev.Config == nil {
			t.Fatal("expected a reloaded config")
		}
		if ev.Config.SipThresholdML != 1.5 {
			t.Errorf("expected reloaded threshold 1.5, got %v", ev.Config.SipThresholdML)
		}
		if ev.Config.SipGap != 4*time.Second {
			t.Errorf("expected reloaded gap 4s, got %v", ev.Config.SipGap)
		}
		if ev.Config.EnvPath() != envFile {
			t.Errorf("expected env path %q, got %q", envFile, ev.Config.EnvPath())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload event")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SIPSTREAM_DEVICE_NAME=X\n"), 0o644); err != nil {
		t.Fatalf("failed to seed env file: %v", err)
	}

	w, err := NewWatcher(envFile)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("unrelated"), 0o644); err != nil {
		t.Fatalf("failed to write unrelated file: %v", err)
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for unrelated file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
