package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/parser"
)

// ErrScenarioNotFound is returned for unknown or disabled scenario ids.
var ErrScenarioNotFound = errors.New("scenario not found")

// autoDiscoveredOrder sorts scenarios without a manifest entry after
// everything the manifest declares.
const autoDiscoveredOrder = 999

// Manager owns the scenario catalog for one scripts directory. Load reads
// the manifest and discovers scripts; after that all methods are safe for
// concurrent use. Compiled scripts are cached per scenario and shared.
type Manager struct {
	dir    string
	logger *zap.Logger

	mu        sync.RWMutex
	scenarios map[string]*Scenario
	compiled  map[string]*ast.Script
}

// NewManager creates a manager for the given scripts directory. A nil
// logger disables logging.
func NewManager(dir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		dir:       dir,
		logger:    logger,
		scenarios: make(map[string]*Scenario),
		compiled:  make(map[string]*ast.Script),
	}
}

// Load reads scenarios.yaml from the scripts directory, then fills in any
// .dsl files the manifest does not mention. A missing manifest is not an
// error: the directory contents become the catalog.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scenarios = make(map[string]*Scenario)
	m.compiled = make(map[string]*ast.Script)

	if err := m.loadManifest(); err != nil {
		return err
	}
	if err := m.discoverScripts(); err != nil {
		return err
	}

	m.logger.Info("scenario catalog loaded",
		zap.String("dir", m.dir),
		zap.Int("scenarios", len(m.scenarios)))
	return nil
}

// loadManifest reads scenarios.yaml if present. Callers hold the lock.
func (m *Manager) loadManifest() error {
	v := viper.New()
	v.SetConfigName("scenarios")
	v.SetConfigType("yaml")
	v.AddConfigPath(m.dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			m.logger.Debug("no scenario manifest, relying on discovery", zap.String("dir", m.dir))
			return nil
		}
		return fmt.Errorf("failed to read scenario manifest: %w", err)
	}

	var manifest struct {
		Scenarios []*Scenario `mapstructure:"scenarios"`
	}
	if err := v.Unmarshal(&manifest); err != nil {
		return fmt.Errorf("failed to unmarshal scenario manifest: %w", err)
	}

	for _, s := range manifest.Scenarios {
		if s.ID == "" {
			m.logger.Warn("skipping manifest entry without id")
			continue
		}
		if s.Script == "" {
			s.Script = s.ID + ".dsl"
		}
		if s.Name == "" {
			s.Name = displayName(s.ID)
		}
		m.scenarios[s.ID] = s
	}

	return nil
}

// discoverScripts registers .dsl files the manifest missed. Callers hold
// the lock.
func (m *Manager) discoverScripts() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Warn("scripts directory does not exist", zap.String("dir", m.dir))
			return nil
		}
		return fmt.Errorf("failed to read scripts directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".dsl" {
			continue
		}

		id := strings.TrimSuffix(name, ".dsl")
		if _, exists := m.scenarios[id]; exists {
			continue
		}

		m.scenarios[id] = &Scenario{
			ID:      id,
			Name:    displayName(id),
			Icon:    "📋",
			Script:  name,
			Enabled: true,
			Order:   autoDiscoveredOrder,
		}
		m.logger.Debug("discovered scenario script", zap.String("id", id))
	}

	return nil
}

// Get returns the scenario with the given id, enabled or not.
func (m *Manager) Get(id string) (*Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrScenarioNotFound, id)
	}
	return s, nil
}

// Enabled returns the enabled scenarios sorted by Order then ID.
func (m *Manager) Enabled() []*Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		if s.Enabled {
			list = append(list, s)
		}
	}
	sortScenarios(list)
	return list
}

// ScriptSource reads the raw script text for a scenario.
func (m *Manager) ScriptSource(id string) (string, error) {
	s, err := m.Get(id)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(m.dir, s.Script))
	if err != nil {
		return "", fmt.Errorf("failed to read script for %q: %w", id, err)
	}
	return string(data), nil
}

// CompiledScript parses the scenario's script on first use and caches the
// result. A script with parse errors is not cached, so a fixed file is
// picked up on the next call after Invalidate.
func (m *Manager) CompiledScript(id string) (*ast.Script, error) {
	m.mu.RLock()
	cached, ok := m.compiled[id]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	source, err := m.ScriptSource(id)
	if err != nil {
		return nil, err
	}

	script, parseErrors := parser.Compile(source)
	if len(parseErrors) > 0 {
		m.logger.Error("scenario script has errors",
			zap.String("id", id),
			zap.Int("errors", len(parseErrors)),
			zap.String("first", parseErrors[0].Error()))
		return nil, fmt.Errorf("script for %q has %d parse errors: %s",
			id, len(parseErrors), parseErrors[0].Error())
	}

	m.mu.Lock()
	m.compiled[id] = script
	m.mu.Unlock()

	m.logger.Info("compiled scenario script",
		zap.String("id", id),
		zap.Int("steps", len(script.Steps)))
	return script, nil
}

// Invalidate drops the cached AST for a scenario so the next
// CompiledScript re-parses the file.
func (m *Manager) Invalidate(id string) {
	m.mu.Lock()
	delete(m.compiled, id)
	m.mu.Unlock()
}

// displayName renders an id like "walk_in_clinic" as "Walk In Clinic".
func displayName(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
