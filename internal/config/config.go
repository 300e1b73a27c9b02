// Package config loads shell configuration from CUE files.
//
// A configuration file is validated against an embedded CUE schema before
// it is decoded, so type errors and unknown log levels are reported with
// their position in the file.
//
// Example crush.cue:
//
//	stream: capacity: 64
//	log: level: "debug"
//	history: path: "~/.crush_history.db"
//	vars: {
//		project: "crush"
//		limit:   10
//	}
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

//go:embed schema.cue
var schemaCUE string

// FileName is the configuration file looked up by Discover.
const FileName = "crush.cue"

// Config is the decoded configuration.
type Config struct {
	Stream  StreamConfig
	Log     LogConfig
	History HistoryConfig

	// Vars are bound with let semantics before the first pipeline runs.
	Vars map[string]value.Value
}

// StreamConfig configures stream buffers.
type StreamConfig struct {
	Capacity int `json:"capacity"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level string `json:"level"`
}

// HistoryConfig configures the pipeline history store.
type HistoryConfig struct {
	Path string `json:"path"`
}

// Resolve returns the history database path. A leading "~" expands to the
// user's home directory and a relative path is joined onto cwd.
func (h HistoryConfig) Resolve(cwd string) (string, error) {
	p := h.Path
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	return filepath.Clean(p), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{Capacity: stream.DefaultCapacity},
		Log:    LogConfig{Level: "info"},
		Vars:   map[string]value.Value{},
	}
}

// LoadError is a configuration error with its CUE position, if known.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Discover returns the path of crush.cue in dir, or "" if there is none.
func Discover(dir string) string {
	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// Load reads and validates the configuration file at path. An empty path
// returns Default(). Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates and decodes configuration source. filename is used in
// error positions only.
func Parse(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, toLoadError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, toLoadError(err)
	}

	var file struct {
		Stream  StreamConfig  `json:"stream"`
		Log     LogConfig     `json:"log"`
		History HistoryConfig `json:"history"`
	}
	if err := v.Decode(&file); err != nil {
		return nil, toLoadError(err)
	}

	cfg := Default()
	if file.Stream.Capacity > 0 {
		cfg.Stream.Capacity = file.Stream.Capacity
	}
	if file.Log.Level != "" {
		cfg.Log.Level = file.Log.Level
	}
	cfg.History.Path = file.History.Path

	vars, err := decodeVars(v.LookupPath(cue.ParsePath("vars")))
	if err != nil {
		return nil, err
	}
	cfg.Vars = vars

	return cfg, nil
}

// decodeVars converts the vars struct into typed cells.
func decodeVars(v cue.Value) (map[string]value.Value, error) {
	vars := map[string]value.Value{}
	if !v.Exists() {
		return vars, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, toLoadError(err)
	}
	for iter.Next() {
		name, field := iter.Label(), iter.Value()

		var cell value.Value
		switch field.Kind() {
		case cue.IntKind:
			n, err := field.Int64()
			if err != nil {
				return nil, toLoadError(err)
			}
			cell = value.Integer(n)
		case cue.FloatKind:
			f, err := field.Float64()
			if err != nil {
				return nil, toLoadError(err)
			}
			cell = value.Float(f)
		case cue.StringKind:
			s, err := field.String()
			if err != nil {
				return nil, toLoadError(err)
			}
			cell = value.NewText(s)
		case cue.BoolKind:
			b, err := field.Bool()
			if err != nil {
				return nil, toLoadError(err)
			}
			cell = value.Bool(b)
		default:
			return nil, &LoadError{Message: fmt.Sprintf("vars.%s: unsupported kind %s", name, field.Kind()), Pos: field.Pos()}
		}
		vars[name] = cell
	}
	return vars, nil
}

// toLoadError keeps the first CUE error position.
func toLoadError(err error) error {
	var cueErr cueerrors.Error
	if errors.As(err, &cueErr) {
		return &LoadError{Message: cueErr.Error(), Pos: cueErr.Position()}
	}
	return &LoadError{Message: err.Error()}
}

// LogLevel maps the configured level to slog. Unknown levels map to Info.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// VarNames returns the configured variable names in sorted order.
func (c *Config) VarNames() []string {
	names := make([]string, 0, len(c.Vars))
	for name := range c.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
