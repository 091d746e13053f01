package daemon

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// PIDFile is the well-known liveness record under the user's data
// directory: a PID plus the time the record was written. The timestamp
// is stored and parsed but not compared against anything; a reused PID
// from an unrelated process is told apart from the daemon by the
// signal-0 probe and image-name check in sameImage.
type PIDFile struct {
	Path string
}

// Read parses the PID file, if present. A missing file is not an error:
// it reports ok=false.
func (f PIDFile) Read() (pid int, createdAt time.Time, ok bool, err error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, time.Time{}, false, nil
		}
		return 0, time.Time{}, false, fmt.Errorf("read pid file: %w", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if len(lines) < 2 {
		return 0, time.Time{}, false, fmt.Errorf("malformed pid file %s", f.Path)
	}

	pid, err = strconv.Atoi(lines[0])
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("malformed pid in %s: %w", f.Path, err)
	}
	createdAtUnix, err := strconv.ParseInt(lines[1], 10, 64)
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("malformed timestamp in %s: %w", f.Path, err)
	}
	return pid, time.Unix(createdAtUnix, 0), true, nil
}

// Write records pid and createdAt, creating parent directories as needed.
func (f PIDFile) Write(pid int, createdAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create pid file directory: %w", err)
	}
	content := fmt.Sprintf("%d\n%d\n", pid, createdAt.Unix())
	if err := os.WriteFile(f.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Remove deletes the PID file. Removing an already-absent file is not
// an error.
func (f PIDFile) Remove() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}
