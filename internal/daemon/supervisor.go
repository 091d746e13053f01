package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kasl-dev/kasl/internal/kerrors"
)

// StopGracePeriod bounds how long Stop waits for a graceful shutdown
// before force-killing the daemon.
const StopGracePeriod = 5 * time.Second

// Supervisor implements the daemon lifecycle: single-instance
// enforcement via a PID file plus a process-liveness probe, detached
// spawn of a foreground daemon child, and graceful-then-forced stop.
type Supervisor struct {
	PIDFile PIDFile
	LogPath string

	// ForegroundFlag is the flag Start passes to the binary's watch
	// command to re-exec it in foreground-daemon mode (e.g. "--foreground").
	ForegroundFlag string
}

// NewSupervisor builds a Supervisor over the given PID and log file
// paths.
func NewSupervisor(pidPath, logPath, foregroundFlag string) *Supervisor {
	return &Supervisor{PIDFile: PIDFile{Path: pidPath}, LogPath: logPath, ForegroundFlag: foregroundFlag}
}

// Start enforces single-instance semantics and spawns the detached
// foreground daemon, writing its PID on success.
func (s *Supervisor) Start() error {
	running, err := s.running()
	if err != nil {
		return err
	}
	if running {
		return kerrors.ErrAlreadyRunning
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("%w: resolve executable: %v", kerrors.ErrStorageError, err)
	}

	logFile, err := os.OpenFile(s.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open log file: %v", kerrors.ErrStorageError, err)
	}
	defer logFile.Close()

	cmd := exec.Command(self, "watch", s.ForegroundFlag)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: spawn daemon: %v", kerrors.ErrStorageError, err)
	}

	if err := s.PIDFile.Write(cmd.Process.Pid, time.Now()); err != nil {
		return err
	}
	// The child is detached (its own session via Setsid); this process
	// intentionally does not wait on it.
	return nil
}

// StartWithAutoRestart stops any running instance first, then starts a
// new one, guaranteeing upgrades leave the daemon in a defined state.
func (s *Supervisor) StartWithAutoRestart() error {
	running, err := s.running()
	if err != nil {
		return err
	}
	if running {
		if err := s.Stop(); err != nil {
			return err
		}
	}
	return s.Start()
}

// Stop sends a graceful-termination signal, waits up to StopGracePeriod
// for the process to exit, and force-kills it otherwise. The PID file
// is removed only once the process is confirmed gone.
func (s *Supervisor) Stop() error {
	pid, _, ok, err := s.PIDFile.Read()
	if err != nil {
		return err
	}
	if !ok || !isAlive(pid) {
		return s.PIDFile.Remove()
	}

	if err := terminate(pid, syscall.SIGTERM); err != nil && !isAlive(pid) {
		return s.PIDFile.Remove()
	}

	deadline := time.Now().Add(StopGracePeriod)
	for time.Now().Before(deadline) {
		if !isAlive(pid) {
			return s.PIDFile.Remove()
		}
		time.Sleep(100 * time.Millisecond)
	}

	if isAlive(pid) {
		_ = terminate(pid, syscall.SIGKILL)
		for i := 0; i < 20 && isAlive(pid); i++ {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return s.PIDFile.Remove()
}

// running reports whether a live instance of this binary currently
// holds the PID file, cleaning up a stale file if not.
func (s *Supervisor) running() (bool, error) {
	pid, _, ok, err := s.PIDFile.Read()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	live, err := sameImage(pid)
	if err != nil {
		return false, err
	}
	if !live {
		if err := s.PIDFile.Remove(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
