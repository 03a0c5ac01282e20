package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []string{path}, 10*time.Millisecond, func(p string) {
			select {
			case changed <- p:
			default:
			}
		})
	}()

	base := time.Now()
	deadline := time.After(5 * time.Second)
	var got string
	for i := 1; got == ""; i++ {
		mod := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
		select {
		case got = <-changed:
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
	if filepath.Base(got) != "anim.json" {
		t.Fatalf("changed path = %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunMissingFile(t *testing.T) {
	err := Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.bmd")}, 0, func(string) {})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
