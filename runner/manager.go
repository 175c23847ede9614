// Package runner implements SHYBOX's Execution Manager (spec.md §4.6):
// staging a Fortran-style executable, wiring its dynamic-library
// environment, running it buffered or streaming, classifying benign
// IEEE stderr noise, and persisting an execution manifest that enables
// skip-on-rerun.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/c-hydro/shybox-go/internal/shylog"
)

// ieeeBenignFlags are the Fortran runtime stderr tokens treated as
// informational rather than fatal (spec.md §4.6 phase 6).
var ieeeBenignFlags = []string{"IEEE_INVALID_FLAG", "IEEE_OVERFLOW_FLAG", "IEEE_UNDERFLOW_FLAG"}

// Config describes one executable run.
type Config struct {
	// ExecutablePath is where the binary is staged and run from.
	ExecutablePath string
	// LibraryLocation is the source file copied to ExecutablePath when
	// the latter is missing.
	LibraryLocation string
	// Dependencies are directories prepended to the child's
	// LD_LIBRARY_PATH (or OS-equivalent), in order.
	Dependencies []string
	// Arguments is either a string or a []string; both are accepted
	// per spec.md §4.6 phase 4.
	Arguments interface{}
	// InfoPath is the manifest file's location (info.location).
	InfoPath string
	// Tag identifies this run in the manifest (e.g. a time or tile).
	Tag string
	// Streaming selects line-buffered stdout/stderr tee to Logger
	// instead of fully-buffered capture.
	Streaming bool
	Logger    *shylog.Logger
	// Timeout bounds wall-clock execution; zero means no timeout.
	Timeout time.Duration
	// ExecutionUpdate forces a rerun (and restaging) even if a
	// manifest already exists at InfoPath.
	ExecutionUpdate bool
	// DryRun performs staging and environment setup only, skipping
	// command build, execution, classification, and manifest emit
	// (spec.md §4.6 "Dry-run mode").
	DryRun bool
}

// Manager runs a single Config through the seven phases of spec.md
// §4.6.
type Manager struct {
	Config
}

// New builds a Manager for cfg.
func New(cfg Config) *Manager {
	return &Manager{Config: cfg}
}

// Run executes the seven phases: skip check, stage, environment
// setup, command build, execute, stderr classification, manifest
// emit.
func (m *Manager) Run(ctx context.Context) (*Manifest, error) {
	// Phase 1: skip check.
	if !m.ExecutionUpdate {
		if _, err := os.Stat(m.InfoPath); err == nil {
			return LoadManifest(m.InfoPath)
		}
	}

	// Phase 2: stage executable.
	if err := m.stage(); err != nil {
		return nil, err
	}

	// Phase 3: environment setup.
	env := m.buildEnv()

	if m.DryRun {
		if m.Logger != nil {
			m.Logger.Infof("dry run: staged %s, skipping execution", m.ExecutablePath)
		}
		return &Manifest{
			Executable:    m.ExecutablePath,
			Library:       m.LibraryLocation,
			Dependencies:  m.Dependencies,
			Tag:           m.Tag,
			Mode:          "dry_run",
			ReferenceTime: time.Now(),
		}, nil
	}

	// Phase 4: command build.
	args := buildArgs(m.Arguments)
	command := strings.TrimSpace(m.ExecutablePath + " " + strings.Join(args, " "))

	// Phase 5: execute.
	start := time.Now()
	resp, err := m.execute(ctx, env, args)
	wallTime := time.Since(start)
	if err != nil {
		return nil, err
	}

	// Phase 6: stderr classification.
	if remaining := stripIEEEFlags(resp.Stderr); remaining != "" {
		return nil, &ErrExecutionFailure{Command: command, Stderr: remaining}
	}

	// Phase 7: manifest emit.
	manifest := &Manifest{
		Command:       command,
		Executable:    m.ExecutablePath,
		Library:       m.LibraryLocation,
		Dependencies:  m.Dependencies,
		Tag:           m.Tag,
		Mode:          mode(m.Streaming),
		Response:      resp,
		WallTime:      wallTime,
		ReferenceTime: start,
	}
	if err := WriteManifest(m.InfoPath, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func mode(streaming bool) string {
	if streaming {
		return "streaming"
	}
	return "buffered"
}

// stage ensures ExecutablePath holds a runnable binary, retrying
// transient filesystem contention with github.com/cenkalti/backoff —
// the same bounded-retry shape dataset.OnDemandBackend uses around its
// own on-demand synthesis, applied here to copying library.location
// into place.
func (m *Manager) stage() error {
	if m.ExecutionUpdate {
		if _, err := os.Stat(m.ExecutablePath); err == nil {
			if err := os.Remove(m.ExecutablePath); err != nil {
				return fmt.Errorf("runner: removing stale executable %s: %w", m.ExecutablePath, err)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(m.ExecutablePath), 0o755); err != nil {
		return fmt.Errorf("runner: creating directory for %s: %w", m.ExecutablePath, err)
	}

	if _, err := os.Stat(m.ExecutablePath); err == nil {
		return nil
	}
	if _, err := os.Stat(m.LibraryLocation); err != nil {
		return &ErrStagingFailure{Executable: m.ExecutablePath, Library: m.LibraryLocation}
	}

	op := func() error { return copyFile(m.LibraryLocation, m.ExecutablePath) }
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("runner: staging %s from %s: %w", m.ExecutablePath, m.LibraryLocation, err)
	}
	return os.Chmod(m.ExecutablePath, 0o755)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// buildEnv prepends Dependencies to LD_LIBRARY_PATH, logging (not
// failing) on directories that don't exist, per spec.md §4.6 phase 3.
func (m *Manager) buildEnv() []string {
	env := os.Environ()
	if len(m.Dependencies) == 0 {
		return env
	}
	for _, dir := range m.Dependencies {
		if _, err := os.Stat(dir); err != nil && m.Logger != nil {
			m.Logger.Warnf("runner: dependency directory %s does not exist", dir)
		}
	}
	prepend := strings.Join(m.Dependencies, string(os.PathListSeparator))
	const key = "LD_LIBRARY_PATH"
	for i, kv := range env {
		if strings.HasPrefix(kv, key+"=") {
			env[i] = key + "=" + prepend + string(os.PathListSeparator) + strings.TrimPrefix(kv, key+"=")
			return env
		}
	}
	return append(env, key+"="+prepend)
}

// buildArgs normalizes Arguments (a string or []string) to an argv
// slice, per spec.md §4.6 phase 4.
func buildArgs(args interface{}) []string {
	switch v := args.(type) {
	case nil:
		return nil
	case []string:
		return v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return strings.Fields(v)
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

// execute runs the staged executable, either fully-buffered (with an
// optional wall-clock timeout) or as a line-buffered tee to Logger,
// generalized from the teacher's Log(w io.Writer) DomainManipulator
// iteration-status pattern in run.go into a subprocess output tee.
func (m *Manager) execute(ctx context.Context, env, args []string) (Response, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if m.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, m.ExecutablePath, args...)
	cmd.Env = env

	var resp Response
	var err error
	if m.Streaming {
		resp, err = m.executeStreaming(cmd)
	} else {
		resp, err = m.executeBuffered(cmd)
	}

	command := strings.TrimSpace(m.ExecutablePath + " " + strings.Join(args, " "))
	if runCtx.Err() == context.DeadlineExceeded {
		return resp, &ErrTimeout{Command: command, Timeout: m.Timeout.String()}
	}
	if err != nil {
		return resp, &ErrExecutionFailure{Command: command, ExitErr: err, Stderr: resp.Stderr}
	}
	return resp, nil
}

func (m *Manager) executeBuffered(cmd *exec.Cmd) (Response, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return Response{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, err),
	}, err
}

func (m *Manager) executeStreaming(cmd *exec.Cmd) (Response, error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Response{}, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Response{}, err
	}
	if err := cmd.Start(); err != nil {
		return Response{}, err
	}

	var stdout, stderr bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go teeLines(&wg, stdoutPipe, &stdout, m.Logger, false)
	go teeLines(&wg, stderrPipe, &stderr, m.Logger, true)
	wg.Wait()

	err = cmd.Wait()
	return Response{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, err),
	}, err
}

func teeLines(wg *sync.WaitGroup, r io.Reader, buf *bytes.Buffer, logger *shylog.Logger, isStderr bool) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if logger == nil {
			continue
		}
		if isStderr {
			logger.Warnf("%s", line)
		} else {
			logger.Infof("%s", line)
		}
	}
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

// stripIEEEFlags removes benign Fortran runtime stderr tokens,
// returning whatever non-whitespace text remains (spec.md §4.6 phase
// 6); a non-empty remainder means the run is fatal.
func stripIEEEFlags(stderr string) string {
	out := stderr
	for _, flag := range ieeeBenignFlags {
		out = strings.ReplaceAll(out, flag, "")
	}
	return strings.TrimSpace(out)
}
