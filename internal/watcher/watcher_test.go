package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, 0, func() {}); err == nil {
		t.Error("expected error for empty path list")
	}
	if _, err := New([]string{"/tmp"}, 0, nil); err == nil {
		t.Error("expected error for nil callback")
	}
}

func TestNewDefaultDebounce(t *testing.T) {
	w, err := New([]string{"/tmp"}, 0, func() {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}

func TestStatePaths(t *testing.T) {
	tests := []struct {
		manager string
		want    string
	}{
		{"apt", "/var/lib/dpkg"},
		{"dnf", "/var/lib/rpm"},
		{"flatpak", "/var/lib/flatpak"},
	}
	for _, tt := range tests {
		paths := StatePaths(tt.manager)
		if len(paths) == 0 {
			t.Errorf("StatePaths(%s) returned nothing", tt.manager)
			continue
		}
		if paths[0] != tt.want {
			t.Errorf("StatePaths(%s)[0] = %s, want %s", tt.manager, paths[0], tt.want)
		}
	}
	if paths := StatePaths("pacman"); paths != nil {
		t.Errorf("StatePaths(pacman) = %v, want nil", paths)
	}
}

func TestStartFailsWhenNoPathExists(t *testing.T) {
	w, err := New([]string{"/nonexistent/depscope-test"}, time.Second, func() {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err == nil {
		w.Stop()
		t.Error("expected Start to fail when no watch path exists")
	}
}

func TestStartSkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{"/nonexistent/depscope-test", dir}, time.Second, func() {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDebouncedCallback(t *testing.T) {
	dir := t.TempDir()
	fired := make(chan struct{}, 1)
	w, err := New([]string{dir}, 50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, "status")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired after filesystem changes")
	}
}
