// Package config loads the optional fiber.yaml runtime configuration and
// resolves its defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-drift/fiber/pkg/scheduler"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in a project directory.
const FileName = "fiber.yaml"

// Scheduler modes.
const (
	ModeLoop = "loop"
	ModeSync = "sync"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the optional fiber.yaml configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Debug     *bool           `yaml:"debug,omitempty"`
	Errors    ErrorsConfig    `yaml:"errors"`
	Storage   StorageConfig   `yaml:"storage"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
	ID   string `yaml:"id,omitempty"`
}

// SchedulerConfig selects and tunes the time-slice provider.
type SchedulerConfig struct {
	Mode          string        `yaml:"mode,omitempty"`
	SliceBudget   time.Duration `yaml:"slice_budget,omitempty"`
	FrameInterval time.Duration `yaml:"frame_interval,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	FramesOnly    bool          `yaml:"frames_only,omitempty"`
}

// ErrorsConfig controls error reporting.
type ErrorsConfig struct {
	Verbose bool `yaml:"verbose,omitempty"`
}

// StorageConfig locates the state database used by UseStorage.
type StorageConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root          string
	ModulePath    string
	AppName       string
	AppID         string
	Mode          string
	SliceBudget   time.Duration
	FrameInterval time.Duration
	Timeout       time.Duration
	FramesOnly    bool
	Debug         bool
	Verbose       bool
	// StoragePath is absolute, or empty when persistence is disabled.
	StoragePath string
}

// LoopConfig returns the scheduler.Loop settings.
func (r *Resolved) LoopConfig() scheduler.LoopConfig {
	return scheduler.LoopConfig{
		SliceBudget:   r.SliceBudget,
		FrameInterval: r.FrameInterval,
		Timeout:       r.Timeout,
		FramesOnly:    r.FramesOnly,
	}
}

// LoadOptional reads fiber.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	return Parse(data)
}

// Parse decodes fiber.yaml content. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Resolve loads fiber.yaml (if present) from dir and resolves defaults.
// A go.mod in dir supplies the default app name and id; without one the
// directory name is used.
func Resolve(dir string) (*Resolved, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	modulePath, err := modulePath(abs)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadOptional(abs)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, abs)
	}
	appID := strings.TrimSpace(cfg.App.ID)
	if appID == "" {
		appID = defaultAppID(modulePath, appName)
	}
	if err := validateAppID(appID); err != nil {
		return nil, err
	}

	mode := strings.TrimSpace(cfg.Scheduler.Mode)
	if mode == "" {
		mode = ModeLoop
	}
	if mode != ModeLoop && mode != ModeSync {
		return nil, fmt.Errorf("%w: scheduler.mode must be %q or %q (got %q)", ErrInvalid, ModeLoop, ModeSync, mode)
	}

	durations := []struct {
		name string
		v    *time.Duration
		def  time.Duration
	}{
		{"slice_budget", &cfg.Scheduler.SliceBudget, scheduler.DefaultSliceBudget},
		{"frame_interval", &cfg.Scheduler.FrameInterval, scheduler.DefaultFrameInterval},
		{"timeout", &cfg.Scheduler.Timeout, scheduler.DefaultTimeout},
	}
	for _, d := range durations {
		if *d.v < 0 {
			return nil, fmt.Errorf("%w: scheduler.%s must be positive (got %v)", ErrInvalid, d.name, *d.v)
		}
		if *d.v == 0 {
			*d.v = d.def
		}
	}

	debug := true
	if cfg.Debug != nil {
		debug = *cfg.Debug
	}

	storagePath := strings.TrimSpace(cfg.Storage.Path)
	if storagePath != "" && !filepath.IsAbs(storagePath) {
		storagePath = filepath.Join(abs, storagePath)
	}

	return &Resolved{
		Root:          abs,
		ModulePath:    modulePath,
		AppName:       appName,
		AppID:         appID,
		Mode:          mode,
		SliceBudget:   cfg.Scheduler.SliceBudget,
		FrameInterval: cfg.Scheduler.FrameInterval,
		Timeout:       cfg.Scheduler.Timeout,
		FramesOnly:    cfg.Scheduler.FramesOnly,
		Debug:         debug,
		Verbose:       cfg.Errors.Verbose,
		StoragePath:   storagePath,
	}, nil
}

// FindProjectRoot walks up from dir to the nearest directory holding
// fiber.yaml or go.mod.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s or go.mod found", FileName)
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modName, _, ok := module.SplitPathVersion(modulePath); ok && modName != "" {
		parts := strings.Split(modName, "/")
		base = parts[len(parts)-1]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "fiber_app"
	}
	return base
}

func defaultAppID(modulePath, appName string) string {
	parts := strings.Split(modulePath, "/")
	if len(parts) < 2 || !strings.Contains(parts[0], ".") {
		return "com.example." + sanitizeSegment(appName, false)
	}

	host := strings.Split(parts[0], ".")
	for i, j := 0, len(host)-1; i < j; i, j = i+1, j-1 {
		host[i], host[j] = host[j], host[i]
	}
	segments := host
	for _, p := range parts[1:] {
		if p != "" {
			segments = append(segments, p)
		}
	}
	for i, segment := range segments {
		segments[i] = sanitizeSegment(segment, false)
	}
	return strings.Join(segments, ".")
}

func sanitizeSegment(segment string, allowLeadingDigit bool) string {
	var out []rune
	for _, r := range strings.TrimSpace(segment) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		}
	}
	if len(out) == 0 {
		return "app"
	}
	if !allowLeadingDigit && (out[0] >= '0' && out[0] <= '9' || out[0] == '_') {
		out = append([]rune{'a'}, out...)
	}
	return string(out)
}

func validateAppID(appID string) error {
	if !strings.Contains(appID, ".") {
		return fmt.Errorf("%w: app.id must contain at least one '.' (got %q)", ErrInvalid, appID)
	}
	for _, segment := range strings.Split(appID, ".") {
		if segment == "" {
			return fmt.Errorf("%w: app.id contains an empty segment (%q)", ErrInvalid, appID)
		}
		if segment[0] >= '0' && segment[0] <= '9' || segment[0] == '_' {
			return fmt.Errorf("%w: app.id segments must start with a letter (%q)", ErrInvalid, appID)
		}
		for _, r := range segment {
			if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
				return fmt.Errorf("%w: app.id contains invalid character %q in %q", ErrInvalid, r, appID)
			}
		}
	}
	return nil
}
