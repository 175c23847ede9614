package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writeScript: %v", err)
	}
	return path
}

func TestStagingFailureWhenLibraryMissing(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: filepath.Join(dir, "nowhere"),
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
	})
	if _, err := m.Run(context.Background()); err == nil {
		t.Fatal("expected ErrStagingFailure")
	} else if _, ok := err.(*ErrStagingFailure); !ok {
		t.Fatalf("expected *ErrStagingFailure, got %T: %v", err, err)
	}
}

func TestStagesLibraryAndRunsBuffered(t *testing.T) {
	dir := t.TempDir()
	lib := writeScript(t, dir, "model.sh", "echo hello\n")
	m := New(Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: lib,
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
	})
	manifest, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if manifest.Response.Stdout != "hello\n" {
		t.Errorf("unexpected stdout: %q", manifest.Response.Stdout)
	}
	if _, err := os.Stat(m.InfoPath); err != nil {
		t.Errorf("manifest file not written: %v", err)
	}
}

func TestSkipOnRerun(t *testing.T) {
	dir := t.TempDir()
	lib := writeScript(t, dir, "model.sh", "echo ran\n")
	cfg := Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: lib,
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
	}
	first, err := New(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Replace the library so a restage (if it happened) would be observable.
	writeScript(t, dir, "model.sh", "echo changed\n")
	cfg.ExecutionUpdate = false
	second, err := New(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Response.Stdout != first.Response.Stdout {
		t.Errorf("expected skip-on-rerun to return the stored manifest unchanged, got %q want %q",
			second.Response.Stdout, first.Response.Stdout)
	}
}

func TestIEEEBenignStderrIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	lib := writeScript(t, dir, "model.sh", "echo IEEE_INVALID_FLAG IEEE_UNDERFLOW_FLAG 1>&2\n")
	m := New(Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: lib,
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
	})
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("benign IEEE stderr should not fail the run: %v", err)
	}
}

func TestNonBenignStderrIsFatal(t *testing.T) {
	dir := t.TempDir()
	lib := writeScript(t, dir, "model.sh", "echo segmentation fault 1>&2\n")
	m := New(Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: lib,
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
	})
	if _, err := m.Run(context.Background()); err == nil {
		t.Fatal("expected ErrExecutionFailure for non-benign stderr")
	} else if _, ok := err.(*ErrExecutionFailure); !ok {
		t.Fatalf("expected *ErrExecutionFailure, got %T: %v", err, err)
	}
}

func TestTimeoutTerminatesChild(t *testing.T) {
	dir := t.TempDir()
	lib := writeScript(t, dir, "model.sh", "sleep 5\n")
	m := New(Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: lib,
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
		Timeout:         50 * time.Millisecond,
	})
	_, err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected ErrTimeout")
	}
	if _, ok := err.(*ErrTimeout); !ok {
		t.Fatalf("expected *ErrTimeout, got %T: %v", err, err)
	}
}

func TestDryRunSkipsExecution(t *testing.T) {
	dir := t.TempDir()
	lib := writeScript(t, dir, "model.sh", "echo should-not-run\n")
	m := New(Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: lib,
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
		DryRun:          true,
	})
	manifest, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if manifest.Mode != "dry_run" {
		t.Errorf("expected dry_run mode, got %q", manifest.Mode)
	}
	if _, err := os.Stat(m.ExecutablePath); err != nil {
		t.Errorf("dry run should still stage the executable: %v", err)
	}
	if _, err := os.Stat(m.InfoPath); err == nil {
		t.Error("dry run should not emit a manifest file")
	}
}

func TestStreamingModeCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	lib := writeScript(t, dir, "model.sh", "echo line-one\necho line-two\n")
	m := New(Config{
		ExecutablePath:  filepath.Join(dir, "bin", "model"),
		LibraryLocation: lib,
		InfoPath:        filepath.Join(dir, "run.info"),
		ExecutionUpdate: true,
		Streaming:       true,
	})
	manifest, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if manifest.Response.Stdout != "line-one\nline-two\n" {
		t.Errorf("unexpected streamed stdout: %q", manifest.Response.Stdout)
	}
}

func TestBuildArgsAcceptsStringOrSlice(t *testing.T) {
	if got := buildArgs("-a 1 -b 2"); len(got) != 4 {
		t.Errorf("expected 4 args from string form, got %v", got)
	}
	if got := buildArgs([]string{"-a", "1"}); len(got) != 2 {
		t.Errorf("expected 2 args from slice form, got %v", got)
	}
	if got := buildArgs(nil); got != nil {
		t.Errorf("expected nil args from nil, got %v", got)
	}
}
