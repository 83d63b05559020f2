package app

import "testing"

func TestFrameHub(t *testing.T) {
	h := NewFrameHub()
	if h.Latest() != nil {
		t.Error("Latest() should be nil before the first frame")
	}

	ch, cancel := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", h.Subscribers())
	}

	h.Publish([]byte("one"))
	h.Publish([]byte("two"))

	// A subscriber that fell behind gets only the newest frame.
	if got := string(<-ch); got != "two" {
		t.Errorf("received %q, want two", got)
	}
	select {
	case f := <-ch:
		t.Errorf("unexpected extra frame %q", f)
	default:
	}
	if string(h.Latest()) != "two" {
		t.Errorf("Latest() = %q, want two", h.Latest())
	}

	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after cancel, want 0", h.Subscribers())
	}
	h.Publish([]byte("three"))
}
