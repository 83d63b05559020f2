package capture

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSource(t *testing.T) {
	tests := []struct {
		source Source
		isFile bool
		target any
	}{
		{Device(0), false, 0},
		{Source("2"), false, 2},
		{Source("/tmp/signs.mp4"), true, "/tmp/signs.mp4"},
		{Source(""), false, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			if got := tt.source.IsFile(); got != tt.isFile {
				t.Errorf("IsFile() = %v, want %v", got, tt.isFile)
			}
			if got := tt.source.target(); got != tt.target {
				t.Errorf("target() = %v, want %v", got, tt.target)
			}
		})
	}
}

func TestSourceCamera_Closed(t *testing.T) {
	for _, src := range []Source{Device(1), Source("clip.avi")} {
		t.Run(string(src), func(t *testing.T) {
			cam := NewSourceCamera(src)
			if cam.IsOpen() {
				t.Fatal("new camera reports open")
			}
			if cam.FPS() != DefaultFPS {
				t.Errorf("FPS() = %d, want %d", cam.FPS(), DefaultFPS)
			}
			if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
				t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
			}
			if err := cam.Close(); err != nil {
				t.Errorf("Close() on a closed camera = %v", err)
			}
		})
	}
}

func TestSourceCamera_SetFPSIgnoresNonPositive(t *testing.T) {
	cam := NewCamera(0)

	steps := []struct{ set, want int }{
		{8, 8},
		{0, 8},
		{-3, 8},
		{30, 30},
	}
	for _, s := range steps {
		cam.SetFPS(s.set)
		if got := cam.FPS(); got != s.want {
			t.Errorf("after SetFPS(%d): FPS() = %d, want %d", s.set, got, s.want)
		}
	}
}

func TestSourceCamera_MissingFile(t *testing.T) {
	cam := NewSourceCamera(Source(filepath.Join(t.TempDir(), "missing.mp4")))
	if err := cam.Open(); err == nil {
		cam.Close()
		t.Skip("backend accepted a missing file")
	}
	if cam.IsOpen() {
		t.Error("camera open after a failed Open()")
	}
}

func TestSourceCamera_Device(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping device test in short mode")
	}

	cam := NewCamera(0)
	if err := cam.Open(); err != nil {
		t.Skipf("no capture device: %v", err)
	}
	defer cam.Close()

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		t.Error("ReadFrame() returned an empty frame")
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if cam.IsOpen() {
		t.Error("camera open after Close()")
	}
}
