package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() before Open error = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadFrame() after last frame error = %v, want ErrEndOfStream", err)
	}
	if cam.Reads() != 2 {
		t.Errorf("Reads() = %d, want 2", cam.Reads())
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_NoFrames(t *testing.T) {
	cam := NewMockCamera(nil, true)
	cam.Open()
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("ReadFrame() error = %v, want ErrNoFrames", err)
	}
}

func TestBlankCamera(t *testing.T) {
	cam := NewBlankCamera()
	cam.Open()
	defer cam.Close()

	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer f.Close()

	if f.Cols() != DefaultWidth || f.Rows() != DefaultHeight {
		t.Errorf("frame size = %dx%d, want %dx%d", f.Cols(), f.Rows(), DefaultWidth, DefaultHeight)
	}
	if cam.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", cam.FPS(), DefaultFPS)
	}
}
