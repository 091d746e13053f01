package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPIDFileMissingReturnsNotOK(t *testing.T) {
	f := PIDFile{Path: filepath.Join(t.TempDir(), "kasl.pid")}
	_, _, ok, err := f.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing pid file")
	}
}

func TestPIDFileWriteReadRoundTrip(t *testing.T) {
	f := PIDFile{Path: filepath.Join(t.TempDir(), "kasl.pid")}
	createdAt := time.Unix(1700000000, 0)

	if err := f.Write(4242, createdAt); err != nil {
		t.Fatalf("write: %v", err)
	}

	pid, got, ok, err := f.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after write")
	}
	if pid != 4242 {
		t.Fatalf("expected pid 4242, got %d", pid)
	}
	if !got.Equal(createdAt) {
		t.Fatalf("expected createdAt %v, got %v", createdAt, got)
	}
}

func TestPIDFileRemoveMissingIsNotError(t *testing.T) {
	f := PIDFile{Path: filepath.Join(t.TempDir(), "kasl.pid")}
	if err := f.Remove(); err != nil {
		t.Fatalf("remove of missing file should not error: %v", err)
	}
}

func TestPIDFileWriteCreatesParentAsNeededForSubsequentReads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "kasl.pid")
	f := PIDFile{Path: path}
	if err := f.Write(1, time.Now()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected pid file to exist: %v", err)
	}
}
