package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamHandler serves annotated frames as MJPEG.
type StreamHandler struct {
	frames FrameSource
}

// NewStreamHandler creates a new StreamHandler reading from frames.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ch, cancel := h.frames.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if latest := h.frames.Latest(); latest != nil {
		if err := writePart(w, latest); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case jpeg := <-ch:
			if err := writePart(w, jpeg); err != nil {
				return
			}
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
