package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

const manifestFile = "plugin.json"

// Manager discovers plugins in a directory.
type Manager struct {
	pluginDir string
	log       zerolog.Logger
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a Manager for pluginDir.
func NewManager(pluginDir string, log zerolog.Logger) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		log:       log.With().Str("component", "plugin").Logger(),
		plugins:   make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory. Every subdirectory holding a
// plugin.json manifest becomes a plugin. A missing directory yields no
// plugins and no error.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.pluginDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read plugin dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.pluginDir, entry.Name())
		p, err := loadPlugin(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			m.log.Warn().Err(err).Str("dir", dir).Msg("skipping plugin")
			continue
		}
		found[p.Manifest.Name] = p
		m.log.Info().Str("plugin", p.Manifest.Name).Strs("events", p.Manifest.Events).Msg("plugin loaded")
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()
	return nil
}

func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var mf Manifest
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestFile, err)
	}
	if mf.Name == "" || mf.Executable == "" {
		return nil, errors.New("manifest needs name and executable")
	}
	return &Plugin{
		Manifest:   mf,
		Path:       dir,
		Executable: filepath.Join(dir, mf.Executable),
	}, nil
}

// Get returns the plugin called name, or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.plugins[name]; ok {
		return p, nil
	}
	return nil, ErrPluginNotFound
}

// List returns the discovered plugins ordered by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	list := slices.Collect(maps.Values(m.plugins))
	m.mu.RUnlock()

	slices.SortFunc(list, func(a, b *Plugin) int {
		return strings.Compare(a.Manifest.Name, b.Manifest.Name)
	})
	return list
}

// PluginDir returns the directory Discover scans.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
