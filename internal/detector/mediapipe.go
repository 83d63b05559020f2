package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

const scriptName = "mediapipe_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Frames go to the helper as a 4-byte big-endian length followed by a
// JPEG; each frame gets one JSON line back.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	pythonPath string
	log        zerolog.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, log zerolog.Logger) (*MediaPipeDetector, error) {
	scriptPath := findMediaPipeScript()
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultConfig().IdleTimeout
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		pythonPath: pythonPath,
		log:        log.With().Str("component", "mediapipe").Logger(),
	}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		// The helper is probably gone; restart it on the next frame.
		d.shutdown()
		return nil, err
	}

	hands, err := readHands(d.stdout)
	if err != nil {
		d.shutdown()
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return hands, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.pythonPath, d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = d.log.With().Str("stream", "stderr").Logger()

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	d.log.Info().Int("pid", d.cmd.Process.Pid).Str("script", d.scriptPath).Msg("mediapipe service started")
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.log.Info().Msg("mediapipe service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

// writeFrame sends one length-prefixed frame.
func writeFrame(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// readHands reads one JSON response line.
func readHands(r *bufio.Reader) ([]HandLandmarks, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe: %s", response.Error)
	}

	result := make([]HandLandmarks, len(response.Hands))
	for i, h := range response.Hands {
		result[i] = h.toHandLandmarks()
	}
	return result, nil
}

func findMediaPipeScript() string {
	if p := os.Getenv("MUDRA_MEDIAPIPE_SCRIPT"); p != "" {
		return p
	}

	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	return firstExisting(
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".mudra", "scripts", scriptName),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(lm.Points[:], h.Points)
	return lm
}
