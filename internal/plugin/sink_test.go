package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/sign"
)

func TestSink_RunsSubscribedPlugins(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "log")

	// Each plugin appends its directory name and the request to one file.
	script := "#!/bin/sh\necho \"$(basename \"$PWD\") $(cat)\" >> " + out + "\n"
	for name, events := range map[string][]string{"all": nil, "spoken": {"spoken"}} {
		dir := writeManifest(t, root, name, Manifest{Name: name, Executable: "run", Events: events})
		if err := os.WriteFile(filepath.Join(dir, "run"), []byte(script), 0755); err != nil {
			t.Fatal(err)
		}
	}

	manager := NewManager(root, zerolog.Nop())
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	sink := NewSink(manager, NewExecutor(5*time.Second), zerolog.Nop())

	events := []session.Event{
		{Kind: session.EventConfirmed, Symbol: sign.MustParse("H"), Text: "H", Seq: 1},
		{Kind: session.EventSpoken, Text: "H"},
	}
	for _, ev := range events {
		if err := sink.Handle(ev); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sink.Close(ctx)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d plugin runs, want 3:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], `all {"event":"confirmed"`) {
		t.Errorf("first run = %q", lines[0])
	}
	if !strings.Contains(lines[0], `"sign":"H"`) {
		t.Errorf("confirmed request missing sign: %q", lines[0])
	}
	spoken := 0
	for _, l := range lines[1:] {
		if strings.Contains(l, `"event":"spoken"`) {
			spoken++
		}
	}
	if spoken != 2 {
		t.Errorf("spoken runs = %d, want 2", spoken)
	}

	if err := sink.Handle(events[0]); err != nil {
		t.Errorf("Handle() after Close = %v, want nil", err)
	}
	sink.Close(ctx)
}

func TestSink_QueueFull(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	root := t.TempDir()
	dir := writeManifest(t, root, "slow", Manifest{Name: "slow", Executable: "run"})
	if err := os.WriteFile(filepath.Join(dir, "run"), []byte("#!/bin/sh\nsleep 5\n"), 0755); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(root, zerolog.Nop())
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	sink := NewSink(manager, NewExecutor(10*time.Second), zerolog.Nop())

	var full bool
	for i := 0; i < DefaultQueueSize+2; i++ {
		if err := sink.Handle(session.Event{Kind: session.EventCleared}); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	if !full {
		t.Error("expected ErrQueueFull once the worker is busy")
	}

	// A cancelled context kills the running plugin instead of waiting.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	sink.Close(ctx)
	if time.Since(start) > 3*time.Second {
		t.Errorf("Close took %s with a cancelled context", time.Since(start))
	}
}
