// internal/config/config.go
//
// This package handles configuration and the .kallipolis directory
// structure. Every project that runs the simulator gets a .kallipolis/
// folder created in its root, holding the config file, the logbook, and
// one transcript file per run.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/intent"
)

const (
	// Dir is the name of the directory we create in each project.
	Dir = ".kallipolis"

	configFilename = "config.yaml"

	// DefaultBudget is the fixed treasury of the stock simulation.
	DefaultBudget = 700
	// DefaultTurnCap bounds one session; checked every turn.
	DefaultTurnCap = 50
)

const defaultConfigYAML = `# kallipolis session configuration
version: 1

# Treasury available to the coordinator's final allocation.
budget: 700

# Safety ceiling on turns per session.
turn_cap: 50

# When true, a successful allocation must name every specialist.
require_full_coverage: false

# Marker vocabulary. Leave unset to use the stock markers; an unset
# allocation marker follows the finalize marker.
# markers:
#   finalize: SET_SALARY
#   allocation: SET_SALARY
#   proposal: '"directive"'
#   judge_approve: '"solved": true'
#   judge_reject: '"solved": false'
#   open: '"crisis"'
#   address: 'speak @'

# Roster override. Leave unset for the stock seven-citizen council.
# roster:
#   arbiter: God
#   coordinator: Philosopher_Ruler
#   specialists:
#     - id: Farmer
#       domain: agriculture

# Path to a custom crisis catalog (yaml list of name/prompt pairs).
# scenarios: crises.yaml

model:
  name: llama3.1:8b-instruct-q8_0
  temperature: 0.7
`

// ModelConfig carries the agent-runtime knobs persisted in config.yaml.
// Environment variables override these at runtime. Temperature is a
// pointer so an explicit zero in the file survives defaulting.
type ModelConfig struct {
	Name           string   `yaml:"name"`
	Host           string   `yaml:"host,omitempty"`
	Temperature    *float64 `yaml:"temperature"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
}

// SessionConfig models .kallipolis/config.yaml. Budget is a pointer for
// the same reason as Temperature: an empty treasury is a legal setting,
// distinct from leaving the field out.
type SessionConfig struct {
	Version             int            `yaml:"version"`
	Budget              *int           `yaml:"budget"`
	TurnCap             int            `yaml:"turn_cap"`
	RequireFullCoverage bool           `yaml:"require_full_coverage"`
	Markers             intent.Markers `yaml:"markers"`
	Roster              council.Roster `yaml:"roster"`
	Scenarios           string         `yaml:"scenarios,omitempty"`
	Model               ModelConfig    `yaml:"model"`
}

// Config holds the runtime configuration for one project directory.
type Config struct {
	// ProjectDir is the directory where the user ran `kallipolis` from.
	ProjectDir string

	// KallipolisDir is ProjectDir/.kallipolis.
	KallipolisDir string

	Session SessionConfig
}

// InitDir creates the .kallipolis directory structure in the given project
// directory and writes a default config file on first run.
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(filepath.Join(root, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: ensure %s: %w", root, err)
	}
	return ensureConfigFile(filepath.Join(root, configFilename))
}

// New loads the project configuration, falling back to defaults when no
// config file exists yet.
func New(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:    projectDir,
		KallipolisDir: filepath.Join(projectDir, Dir),
		Session:       defaultSessionConfig(),
	}
	if err := cfg.loadSessionConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the directory holding transcripts and the logbook.
func (c *Config) LogsDir() string {
	return filepath.Join(c.KallipolisDir, "logs")
}

// LogbookPath returns the file the run logbook appends to.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "kallipolis.log")
}

// ConfigPath returns the on-disk location of the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.KallipolisDir, configFilename)
}

// ScenariosPath resolves the custom catalog path relative to the project
// directory; empty when no custom catalog is configured.
func (c *Config) ScenariosPath() string {
	trimmed := strings.TrimSpace(c.Session.Scenarios)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Join(c.ProjectDir, trimmed)
}

func (c *Config) loadSessionConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed SessionConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Session = parsed
	return nil
}

func defaultSessionConfig() SessionConfig {
	cfg := SessionConfig{}
	cfg.applyDefaults()
	cfg.normalize()
	return cfg
}

func (sc *SessionConfig) applyDefaults() {
	if sc.Version == 0 {
		sc.Version = 1
	}
	if sc.Budget == nil {
		budget := DefaultBudget
		sc.Budget = &budget
	}
	if sc.TurnCap == 0 {
		sc.TurnCap = DefaultTurnCap
	}
	defaults := intent.DefaultMarkers()
	if sc.Markers.Finalize == "" {
		sc.Markers.Finalize = defaults.Finalize
	}
	// The allocation marker follows the finalize marker, not the stock
	// vocabulary, so a custom finalize keeps the conflated behavior.
	if sc.Markers.Allocation == "" {
		sc.Markers.Allocation = sc.Markers.Finalize
	}
	if sc.Markers.Proposal == "" {
		sc.Markers.Proposal = defaults.Proposal
	}
	if sc.Markers.JudgeApprove == "" {
		sc.Markers.JudgeApprove = defaults.JudgeApprove
	}
	if sc.Markers.JudgeReject == "" {
		sc.Markers.JudgeReject = defaults.JudgeReject
	}
	if sc.Markers.Open == "" {
		sc.Markers.Open = defaults.Open
	}
	if sc.Markers.Address == "" {
		sc.Markers.Address = defaults.Address
	}
	if sc.Roster.Arbiter == "" && sc.Roster.Coordinator == "" && len(sc.Roster.Specialists) == 0 {
		sc.Roster = *council.Default()
	}
	if sc.Model.Name == "" {
		sc.Model.Name = "llama3.1:8b-instruct-q8_0"
	}
	if sc.Model.Temperature == nil {
		temp := 0.7
		sc.Model.Temperature = &temp
	}
}

func (sc *SessionConfig) normalize() {
	sc.Roster.Normalize()
	sc.Scenarios = strings.TrimSpace(sc.Scenarios)
	sc.Model.Name = strings.TrimSpace(sc.Model.Name)
	sc.Model.Host = strings.TrimSpace(sc.Model.Host)
}

func (sc *SessionConfig) validate() error {
	if sc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if *sc.Budget < 0 {
		return fmt.Errorf("budget must be >= 0")
	}
	if sc.TurnCap < 1 {
		return fmt.Errorf("turn_cap must be >= 1")
	}
	if err := sc.Markers.Validate(); err != nil {
		return err
	}
	if err := sc.Roster.Validate(); err != nil {
		return err
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
