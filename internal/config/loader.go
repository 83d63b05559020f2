package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Loader loads configuration. Tests can override Lookup to inject
// deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
	// EnvFile is read when present; real environment variables win over it.
	EnvFile string
}

// Load builds the configuration: defaults, then MUDRA_CONFIG JSON, then
// individual MUDRA_* variables, then validation.
func (l Loader) Load() (Config, error) {
	lookup, err := l.lookup()
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	if raw, ok := lookup("MUDRA_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(lookup, "MUDRA_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(lookup, "MUDRA_GRPC_ADDR", &cfg.GRPCAddr)
	overrideString(lookup, "MUDRA_LOG_LEVEL", &cfg.LogLevel)
	overrideString(lookup, "MUDRA_CAMERA", &cfg.Camera)
	overrideString(lookup, "MUDRA_MODEL_PATH", &cfg.ModelPath)
	overrideString(lookup, "MUDRA_DATA_DIR", &cfg.DataDir)
	overrideString(lookup, "MUDRA_WEB_DIR", &cfg.WebDir)
	overrideString(lookup, "MUDRA_PLUGIN_DIR", &cfg.PluginDir)
	overrideString(lookup, "MUDRA_TTS_COMMAND", &cfg.TTSCommand)
	overrideString(lookup, "MUDRA_TTS_URL", &cfg.TTSURL)
	overrideString(lookup, "MUDRA_TTS_TOKEN", &cfg.TTSToken)
	overrideList(lookup, "MUDRA_LABELS", &cfg.Labels)

	if err := errors.Join(
		overrideInt(lookup, "MUDRA_FPS", &cfg.FPS),
		overrideFloat(lookup, "MUDRA_CONFIDENCE_THRESHOLD", &cfg.ConfidenceThreshold),
		overrideMillis(lookup, "MUDRA_HOLD_MS", &cfg.Hold),
		overrideMillis(lookup, "MUDRA_COOLDOWN_MS", &cfg.Cooldown),
		overrideBool(lookup, "MUDRA_MIRROR", &cfg.Mirror),
		overrideBool(lookup, "MUDRA_CLIPBOARD", &cfg.Clipboard),
		overrideBool(lookup, "MUDRA_KEYBOARD", &cfg.Keyboard),
	); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// lookup layers the process environment over the .env file.
func (l Loader) lookup() (func(string) (string, bool), error) {
	primary := l.Lookup
	if primary == nil {
		primary = os.LookupEnv
	}
	if l.EnvFile == "" {
		return primary, nil
	}

	file, err := godotenv.Read(l.EnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return primary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", l.EnvFile, err)
	}

	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		ListenAddr          string   `json:"listen_addr"`
		GRPCAddr            string   `json:"grpc_addr"`
		LogLevel            string   `json:"log_level"`
		Camera              string   `json:"camera"`
		FPS                 *int     `json:"fps"`
		Mirror              *bool    `json:"mirror"`
		ConfidenceThreshold *float64 `json:"confidence_threshold"`
		HoldMs              *int     `json:"hold_ms"`
		CooldownMs          *int     `json:"cooldown_ms"`
		ModelPath           string   `json:"model_path"`
		Labels              []string `json:"labels"`
		DataDir             string   `json:"data_dir"`
		WebDir              string   `json:"web_dir"`
		PluginDir           string   `json:"plugin_dir"`
		TTSCommand          string   `json:"tts_command"`
		TTSURL              string   `json:"tts_url"`
		Clipboard           *bool    `json:"clipboard"`
		Keyboard            *bool    `json:"keyboard"`
	}
	var payload jsonConfig
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode MUDRA_CONFIG: %w", err)
	}

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&cfg.ListenAddr, payload.ListenAddr)
	setString(&cfg.GRPCAddr, payload.GRPCAddr)
	setString(&cfg.LogLevel, payload.LogLevel)
	setString(&cfg.Camera, payload.Camera)
	setString(&cfg.ModelPath, payload.ModelPath)
	setString(&cfg.DataDir, payload.DataDir)
	setString(&cfg.WebDir, payload.WebDir)
	setString(&cfg.PluginDir, payload.PluginDir)
	setString(&cfg.TTSCommand, payload.TTSCommand)
	setString(&cfg.TTSURL, payload.TTSURL)

	if payload.FPS != nil {
		cfg.FPS = *payload.FPS
	}
	if payload.Mirror != nil {
		cfg.Mirror = *payload.Mirror
	}
	if payload.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *payload.ConfidenceThreshold
	}
	if payload.HoldMs != nil {
		cfg.Hold = time.Duration(*payload.HoldMs) * time.Millisecond
	}
	if payload.CooldownMs != nil {
		cfg.Cooldown = time.Duration(*payload.CooldownMs) * time.Millisecond
	}
	if len(payload.Labels) > 0 {
		cfg.Labels = payload.Labels
	}
	if payload.Clipboard != nil {
		cfg.Clipboard = *payload.Clipboard
	}
	if payload.Keyboard != nil {
		cfg.Keyboard = *payload.Keyboard
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideList(lookup func(string) (string, bool), key string, target *[]string) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		// "Space" labels may legitimately be a lone space.
		if part == " " {
			out = append(out, part)
			continue
		}
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*target = out
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideMillis(lookup func(string) (string, bool), key string, target *time.Duration) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = time.Duration(ms) * time.Millisecond
	}
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
