// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/typing"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete salescoach configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Backend      BackendConfig      `toml:"backend" json:"backend"`
	Typing       TypingConfig       `toml:"typing" json:"typing"`
	Audio        AudioConfig        `toml:"audio" json:"audio"`
	Conversation ConversationConfig `toml:"conversation" json:"conversation"`
	UI           UIConfig           `toml:"ui" json:"ui"`
	Log          LogConfig          `toml:"log" json:"log"`
}

// BackendConfig locates the training backend.
type BackendConfig struct {
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds each request. 0 waits indefinitely.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// TypingConfig controls the reply typing animation.
type TypingConfig struct {
	CharsPerSecond             float64 `toml:"chars_per_second" json:"chars_per_second"`
	SpeedVarianceLevel         float64 `toml:"speed_variance_level" json:"speed_variance_level"`
	PunctuationPauseMultiplier float64 `toml:"punctuation_pause_multiplier" json:"punctuation_pause_multiplier"`

	// IndicatorDelayMs is how long the "..." indicator shows before typing.
	IndicatorDelayMs int `toml:"indicator_delay_ms" json:"indicator_delay_ms"`

	// Disabled shows replies at once.
	Disabled bool `toml:"disabled" json:"disabled"`
}

// AudioConfig controls speech capture and playback.
type AudioConfig struct {
	MaxRecordingSecs int `toml:"max_recording_secs" json:"max_recording_secs"`
	SampleRate       int `toml:"sample_rate" json:"sample_rate"`
	Channels         int `toml:"channels" json:"channels"`

	// CaptureCommand must write raw 16-bit little-endian PCM to stdout.
	// Empty selects ffmpeg or arecord.
	CaptureCommand string `toml:"capture_command" json:"capture_command"`

	// PlaybackCommand must play MP3 from stdin. Empty selects ffplay or mpg123.
	PlaybackCommand string `toml:"playback_command" json:"playback_command"`

	// Voice is passed to the text-to-speech endpoint.
	Voice string `toml:"voice" json:"voice"`
}

// ConversationConfig holds the initial role and scenario selection.
type ConversationConfig struct {
	DefaultRole     string `toml:"default_role" json:"default_role"`
	DefaultScenario string `toml:"default_scenario" json:"default_scenario"`
	TTSEnabled      bool   `toml:"tts_enabled" json:"tts_enabled"`
	AutoStart       bool   `toml:"auto_start" json:"auto_start"`
}

// UIConfig controls the terminal interface.
type UIConfig struct {
	Theme          string `toml:"theme" json:"theme"`
	Mouse          bool   `toml:"mouse" json:"mouse"`
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// File is the log path. Empty uses ~/.salescoach/salescoach.log; "off"
	// disables logging.
	File string `toml:"file" json:"file"`
}

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			URL:         "http://localhost:8000",
			TimeoutSecs: 0,
		},
		Typing: TypingConfig{
			CharsPerSecond:             typing.DefaultCharsPerSecond,
			SpeedVarianceLevel:         typing.DefaultSpeedVarianceLevel,
			PunctuationPauseMultiplier: typing.DefaultPunctuationPauseMultiplier,
			IndicatorDelayMs:           500,
		},
		Audio: AudioConfig{
			MaxRecordingSecs: 30,
			SampleRate:       audio.DefaultFormat.SampleRate,
			Channels:         audio.DefaultFormat.Channels,
			Voice:            "af_heart",
		},
		Conversation: ConversationConfig{
			DefaultRole:     "sales specialist",
			DefaultScenario: "product_pitch",
		},
		UI: UIConfig{
			Theme: "dark",
			Mouse: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Engine returns the typing engine configuration.
func (t TypingConfig) Engine() typing.Config {
	return typing.Config{
		CharsPerSecond:             t.CharsPerSecond,
		SpeedVarianceLevel:         t.SpeedVarianceLevel,
		PunctuationPauseMultiplier: t.PunctuationPauseMultiplier,
	}
}

// IndicatorDelay returns the typing indicator duration.
func (t TypingConfig) IndicatorDelay() time.Duration {
	return time.Duration(t.IndicatorDelayMs) * time.Millisecond
}

// Format returns the capture PCM format.
func (a AudioConfig) Format() audio.Format {
	return audio.Format{SampleRate: a.SampleRate, Channels: a.Channels, BitsPerSample: 16}
}

// MaxDuration returns the hard recording limit.
func (a AudioConfig) MaxDuration() time.Duration {
	return time.Duration(a.MaxRecordingSecs) * time.Second
}

// Timeout returns the per-request timeout, 0 for none.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// LogPath resolves the log file path. It returns "" when logging is off.
func (l LogConfig) LogPath() string {
	switch strings.ToLower(strings.TrimSpace(l.File)) {
	case "off", "none", "-":
		return ""
	case "":
		dir, err := ConfigDir()
		if err != nil {
			return ""
		}
		return filepath.Join(dir, "salescoach.log")
	default:
		return l.File
	}
}

// =============================================================================
// FILE LOCATIONS
// =============================================================================

// ConfigDir is ~/.salescoach, or $SALESCOACH_HOME when set.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SALESCOACH_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".salescoach"), nil
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML is the preferred config file.
func ConfigPathTOML() (string, error) { return inConfigDir("config.toml") }

// ConfigPathJSON is read only when no TOML file exists.
func ConfigPathJSON() (string, error) { return inConfigDir("config.json") }

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOADING
// =============================================================================

// LoadDotEnv reads .env from the working directory, then from the config
// directory. Variables already in the environment are kept.
func LoadDotEnv() {
	paths := []string{".env"}
	if p, err := inConfigDir(".env"); err == nil {
		paths = append(paths, p)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// decoderFor picks the file format from the extension. Anything that is
// not .json is read as TOML.
func decoderFor(path string) func(*Config, string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON
	}
	return LoadTOML
}

// Load builds the effective configuration: defaults, then the first of
// config.toml / config.json that exists, then .env and SALESCOACH_*
// variables.
//
// A file that fails to parse is skipped. Load then returns the default
// configuration together with the parse error, so callers can warn and
// carry on.
func Load() (*Config, error) {
	LoadDotEnv()

	var fileErr error
	for _, locate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := locate()
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg := Default()
		if err := decoderFor(path)(cfg, path); err != nil {
			fileErr = fmt.Errorf("reading %s: %w", filepath.Base(path), err)
			continue
		}
		return finish(cfg)
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	return cfg, fileErr
}

// LoadFromPath loads one file. Unlike Load, a bad file is an error.
func LoadFromPath(path string) (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	if err := decoderFor(path)(cfg, path); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decoding TOML: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}
	return nil
}

// SetDefaults fills settings whose zero value is not usable and tidies
// the backend URL.
func (c *Config) SetDefaults() {
	d := Default()

	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&c.Version, d.Version)
	fill(&c.Backend.URL, d.Backend.URL)
	fill(&c.UI.Theme, d.UI.Theme)
	fill(&c.Log.Level, d.Log.Level)
	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")

	if c.Typing.CharsPerSecond == 0 {
		c.Typing.CharsPerSecond = d.Typing.CharsPerSecond
	}
	if c.Typing.PunctuationPauseMultiplier == 0 {
		c.Typing.PunctuationPauseMultiplier = d.Typing.PunctuationPauseMultiplier
	}
	if c.Audio.MaxRecordingSecs == 0 {
		c.Audio.MaxRecordingSecs = d.Audio.MaxRecordingSecs
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = d.Audio.SampleRate
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = d.Audio.Channels
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes cfg to ConfigPathTOML.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

const fileHeader = `# salescoach configuration
# Environment variables (SALESCOACH_URL, SALESCOACH_TTS, ...) override these values.

`

// SaveTOML writes cfg to path with mode 0600, creating parent directories.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateErrors collects every invalid setting so they can be fixed in
// one edit.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}

// Validate checks every section and returns ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if u, err := url.Parse(c.Backend.URL); err != nil || u.Host == "" {
		add("backend.url", fmt.Sprintf("invalid URL %q", c.Backend.URL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("backend.url", fmt.Sprintf("scheme must be http or https, got %q", u.Scheme))
	}
	if c.Backend.TimeoutSecs < 0 {
		add("backend.timeout_secs", "must not be negative")
	}

	if err := c.Typing.Engine().Validate(); err != nil {
		add("typing", err.Error())
	}
	if c.Typing.IndicatorDelayMs < 0 {
		add("typing.indicator_delay_ms", "must not be negative")
	}

	if c.Audio.MaxRecordingSecs < 1 || c.Audio.MaxRecordingSecs > 300 {
		add("audio.max_recording_secs", "must be between 1 and 300")
	}
	if err := c.Audio.Format().Validate(); err != nil {
		add("audio", err.Error())
	}

	if !validThemes[c.UI.Theme] {
		add("ui.theme", fmt.Sprintf("unknown theme %q (dark, light, auto)", c.UI.Theme))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envKeys maps SALESCOACH_* variables to config keys. Values go through
// Set, so "on"/"1"/"yes" work for switches and malformed numbers are
// ignored.
var envKeys = []struct{ env, key string }{
	{"SALESCOACH_URL", "backend.url"},
	{"SALESCOACH_TIMEOUT", "backend.timeout_secs"},
	{"SALESCOACH_ROLE", "conversation.default_role"},
	{"SALESCOACH_SCENARIO", "conversation.default_scenario"},
	{"SALESCOACH_TTS", "conversation.tts_enabled"},
	{"SALESCOACH_TYPING_CPS", "typing.chars_per_second"},
	{"SALESCOACH_CAPTURE_CMD", "audio.capture_command"},
	{"SALESCOACH_PLAYBACK_CMD", "audio.playback_command"},
	{"SALESCOACH_VOICE", "audio.voice"},
	{"SALESCOACH_LOG_LEVEL", "log.level"},
	{"SALESCOACH_LOG_FILE", "log.file"},
}

// ApplyEnvOverrides copies set SALESCOACH_* variables into c.
func (c *Config) ApplyEnvOverrides() {
	for _, e := range envKeys {
		if v := os.Getenv(e.env); v != "" {
			_ = c.Set(e.key, v)
		}
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// =============================================================================
// DOTTED KEYS
// =============================================================================

// Get returns the value at a dotted key such as "backend.url". Key parts
// are the TOML names.
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns the value at a dotted key. Strings are parsed into the
// field's type; other values must be assignable or convertible.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct {
		return fmt.Errorf("%s is a section, not a setting", key)
	}
	return assign(field, value)
}

func tomlName(f reflect.StructField) string {
	return strings.Split(f.Tag.Get("toml"), ",")[0]
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%s is not a section", strings.Join(parts[:i], "."))
		}
		idx := -1
		for j := 0; j < v.NumField(); j++ {
			if tomlName(v.Type().Field(j)) == strings.ToLower(part) {
				idx = j
				break
			}
		}
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("unknown key: %s", strings.Join(parts[:i+1], "."))
		}
		v = v.Field(idx)
	}
	return v, nil
}

func assign(field reflect.Value, value interface{}) error {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("%q is not a whole number", s)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("%q is not a number", s)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(s))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	switch {
	case !val.IsValid():
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	case val.Type().AssignableTo(field.Type()):
		field.Set(val)
	case val.Type().ConvertibleTo(field.Type()):
		field.Set(val.Convert(field.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", value, field.Type())
	}
	return nil
}

// GetAllKeys lists every setting as a dotted key, in file order.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := tomlName(f)
			switch {
			case name == "" || name == "-":
			case f.Type.Kind() == reflect.Struct:
				walk(f.Type, prefix+name+".")
			default:
				keys = append(keys, prefix+name)
			}
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone returns a copy. Config holds no pointers, so the copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as indented JSON for debug logging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// PROCESS-WIDE CONFIG
// =============================================================================

var (
	globalMu   sync.RWMutex
	globalOnce sync.Once
	global     *Config
)

// Global returns the process-wide config, loading it on first use.
func Global() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if cfg == nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalMu.Lock()
		global = cfg
		globalMu.Unlock()
	})

	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// ReloadGlobal re-reads the config from disk and replaces the global one.
// The old config is kept if the file no longer parses.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalOnce.Do(func() {})
	globalMu.Lock()
	defer globalMu.Unlock()
	global = cfg
}

// ResetGlobalForTesting forgets the process-wide config.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = nil
	globalOnce = sync.Once{}
}
