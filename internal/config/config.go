// Package config loads mudra settings from defaults, an optional .env
// file, a JSON blob and individual environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/sign"
)

// Defaults.
const (
	DefaultListenAddr = ":8080"
	DefaultLogLevel   = "info"
	DefaultCamera     = "0"
	DefaultFPS        = 15
	DefaultEnvFile    = ".env"
	DefaultWebDir     = "web"
)

// Config holds the service configuration.
type Config struct {
	ListenAddr string `json:"listen_addr"`
	// GRPCAddr enables the gRPC health service when set.
	GRPCAddr string `json:"grpc_addr"`
	LogLevel string `json:"log_level"`

	// Camera is a capture device index or a video file path.
	Camera string `json:"camera"`
	FPS    int    `json:"fps"`
	Mirror bool   `json:"mirror"`

	ConfidenceThreshold float64       `json:"confidence_threshold"`
	Hold                time.Duration `json:"-"`
	Cooldown            time.Duration `json:"-"`

	// ModelPath selects the ONNX classifier; empty uses letter templates.
	ModelPath string   `json:"model_path"`
	Labels    []string `json:"labels"`

	DataDir string `json:"data_dir"`
	WebDir  string `json:"web_dir"`
	// PluginDir holds event hook plugins; empty means DataDir/plugins.
	PluginDir string `json:"plugin_dir"`

	TTSCommand string `json:"tts_command"`
	TTSURL     string `json:"tts_url"`
	TTSToken   string `json:"-"`

	Clipboard bool `json:"clipboard"`
	Keyboard  bool `json:"keyboard"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	cc := confirm.DefaultConfig()
	return Config{
		ListenAddr:          DefaultListenAddr,
		LogLevel:            DefaultLogLevel,
		Camera:              DefaultCamera,
		FPS:                 DefaultFPS,
		Mirror:              true,
		ConfidenceThreshold: cc.ConfidenceThreshold,
		Hold:                cc.HoldDuration,
		Cooldown:            cc.CooldownDuration,
		Labels:              append([]string(nil), sign.DefaultLabels...),
		DataDir:             filepath.Join(home, ".mudra"),
		WebDir:              DefaultWebDir,
	}
}

// Confirm returns the engine settings.
func (c Config) Confirm() confirm.Config {
	return confirm.Config{
		ConfidenceThreshold: c.ConfidenceThreshold,
		HoldDuration:        c.Hold,
		CooldownDuration:    c.Cooldown,
	}
}

// DBPath returns the SQLite file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// Plugins returns the plugin directory.
func (c Config) Plugins() string {
	if c.PluginDir != "" {
		return c.PluginDir
	}
	return filepath.Join(c.DataDir, "plugins")
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.FPS <= 0 || c.FPS > 120 {
		errs = append(errs, fmt.Errorf("fps must be in 1..120, got %d", c.FPS))
	}
	if err := c.Confirm().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Labels) == 0 {
		errs = append(errs, errors.New("labels must not be empty"))
	}
	for _, l := range c.Labels {
		if _, err := sign.Parse(l); err != nil {
			errs = append(errs, fmt.Errorf("labels: %w", err))
		}
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.TTSURL != "" && c.TTSCommand != "" {
		errs = append(errs, errors.New("tts_url and tts_command are mutually exclusive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel checks a log level name.
func ParseLevel(level string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "", "info":
		return "info", nil
	case "debug", "warn", "error", "trace":
		return l, nil
	case "warning":
		return "warn", nil
	default:
		return "", fmt.Errorf("unknown log level %q", level)
	}
}
