package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// isAlive reports whether pid names a live process, using a signal-0
// probe rather than an advisory lock: locks can be released by the
// kernel on crash without the lock file itself being removed, which
// would make a lock-based check report liveness incorrectly.
func isAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// imageName returns the executable name backing pid, read from procfs.
func imageName(pid int) (string, error) {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return "", fmt.Errorf("read process image name: %w", err)
	}
	return strings.TrimSpace(string(comm)), nil
}

// currentImageName returns the base name of the running binary, for
// comparison against a PID file's recorded image.
func currentImageName() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve own executable: %w", err)
	}
	return filepath.Base(exe), nil
}

// sameImage reports whether pid is alive and running the same
// executable as this process. A stale PID file left by a previous
// instance (or one now reused by an unrelated process) fails this
// check and is treated as not running.
func sameImage(pid int) (bool, error) {
	if !isAlive(pid) {
		return false, nil
	}
	want, err := currentImageName()
	if err != nil {
		return false, err
	}
	got, err := imageName(pid)
	if err != nil {
		// The process exited between the liveness probe and the procfs
		// read, or procfs is unavailable; treat as not running.
		return false, nil
	}
	return got == want, nil
}

func terminate(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}
