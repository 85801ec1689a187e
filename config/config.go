package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config holds runtime configuration for the capture pipeline and app shell.
// Fields may be loaded from a JSON or INI file and overridden by command-line flags.
type Config struct {
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	Hotkey       string `json:"hotkey"`
	ClearHotkey  string `json:"clear_hotkey"` // empties the table; unset disables it
	StepsPath    string `json:"steps_path"`
	TemplateRoot string `json:"template_root"`
	ExportPath   string `json:"export_path"`

	// MinResults is the number of harvested strings a run needs to count as a capture.
	MinResults int `json:"min_results"`

	// Input pacing, milliseconds.
	MoveMillis       int `json:"move_ms"`
	ClickPauseMillis int `json:"click_pause_ms"`
	SettleMillis     int `json:"settle_ms"`
	CopyClicks       int `json:"copy_clicks"`

	// Matching parameters
	Matcher string `json:"matcher"`
	Stride  int    `json:"stride"`
	Refine  bool   `json:"refine"`

	StatusSeconds int `json:"status_seconds"`
	PageSize      int `json:"page_size"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		LogLevel:         "info",
		LogFile:          "",
		Hotkey:           "f1",
		StepsPath:        filepath.Join("config", "steps.json"),
		TemplateRoot:     ".",
		ExportPath:       "records.csv",
		MinResults:       3,
		MoveMillis:       200,
		ClickPauseMillis: 100,
		SettleMillis:     200,
		CopyClicks:       3,
		Matcher:          "ncc",
		Stride:           1,
		Refine:           true,
		StatusSeconds:    3,
		PageSize:         10,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	c.Hotkey = strings.ToLower(strings.TrimSpace(c.Hotkey))
	if c.Hotkey == "" {
		c.Hotkey = "f1"
	}
	c.ClearHotkey = strings.ToLower(strings.TrimSpace(c.ClearHotkey))
	if c.ClearHotkey == c.Hotkey {
		c.ClearHotkey = ""
	}
	if c.StepsPath == "" {
		c.StepsPath = filepath.Join("config", "steps.json")
	}
	if c.TemplateRoot == "" {
		c.TemplateRoot = "."
	}
	if c.MinResults <= 0 {
		c.MinResults = 3
	}
	if c.MoveMillis < 0 {
		c.MoveMillis = 200
	}
	if c.ClickPauseMillis < 0 {
		c.ClickPauseMillis = 100
	}
	if c.SettleMillis < 0 {
		c.SettleMillis = 200
	}
	if c.CopyClicks <= 0 {
		c.CopyClicks = 3
	}
	c.Matcher = strings.ToLower(strings.TrimSpace(c.Matcher))
	if c.Matcher == "" {
		c.Matcher = "ncc"
	}
	if c.Stride <= 0 {
		c.Stride = 1
	}
	if c.StatusSeconds <= 0 {
		c.StatusSeconds = 3
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	return nil
}

// MoveDuration is the animated pointer move time.
func (c *Config) MoveDuration() time.Duration {
	return time.Duration(c.MoveMillis) * time.Millisecond
}

// ClickPause is the gap between the rapid clicks of a copy step.
func (c *Config) ClickPause() time.Duration {
	return time.Duration(c.ClickPauseMillis) * time.Millisecond
}

// SettleDelay is the wait after a step's final input event.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleMillis) * time.Millisecond
}

// StatusDuration is how long a transient status message stays visible.
func (c *Config) StatusDuration() time.Duration {
	return time.Duration(c.StatusSeconds) * time.Second
}

// Load attempts to read configuration from the given path. Files ending in
// .ini are parsed as INI (section [capture]); everything else as JSON. If the
// file does not exist it returns DefaultConfig(). On parse error it returns
// defaults with the error.
func Load(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		return loadINI(path)
	}
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	_ = cfg.Validate()
	return cfg, nil
}

func loadINI(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}
	s := file.Section("capture")
	cfg.Debug = s.Key("debug").MustBool(cfg.Debug)
	cfg.LogLevel = s.Key("log_level").MustString(cfg.LogLevel)
	cfg.LogFile = s.Key("log_file").MustString(cfg.LogFile)
	cfg.Hotkey = s.Key("hotkey").MustString(cfg.Hotkey)
	cfg.ClearHotkey = s.Key("clear_hotkey").MustString(cfg.ClearHotkey)
	cfg.StepsPath = s.Key("steps_path").MustString(cfg.StepsPath)
	cfg.TemplateRoot = s.Key("template_root").MustString(cfg.TemplateRoot)
	cfg.ExportPath = s.Key("export_path").MustString(cfg.ExportPath)
	cfg.MinResults = s.Key("min_results").MustInt(cfg.MinResults)
	cfg.MoveMillis = s.Key("move_ms").MustInt(cfg.MoveMillis)
	cfg.ClickPauseMillis = s.Key("click_pause_ms").MustInt(cfg.ClickPauseMillis)
	cfg.SettleMillis = s.Key("settle_ms").MustInt(cfg.SettleMillis)
	cfg.CopyClicks = s.Key("copy_clicks").MustInt(cfg.CopyClicks)
	cfg.Matcher = s.Key("matcher").MustString(cfg.Matcher)
	cfg.Stride = s.Key("stride").MustInt(cfg.Stride)
	cfg.Refine = s.Key("refine").MustBool(cfg.Refine)
	cfg.StatusSeconds = s.Key("status_seconds").MustInt(cfg.StatusSeconds)
	cfg.PageSize = s.Key("page_size").MustInt(cfg.PageSize)
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to path. Files ending in .ini are written
// as INI (section [capture]) so Load reads them back; everything else as JSON.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		return c.saveINI(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// saveINI rewrites the [capture] section and keeps any other sections of an
// existing file.
func (c *Config) saveINI(path string) error {
	file := ini.Empty()
	if _, err := os.Stat(path); err == nil {
		if file, err = ini.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	s := file.Section("capture")
	set := func(key, value string) { s.Key(key).SetValue(value) }
	set("debug", strconv.FormatBool(c.Debug))
	set("log_level", c.LogLevel)
	set("log_file", c.LogFile)
	set("hotkey", c.Hotkey)
	set("clear_hotkey", c.ClearHotkey)
	set("steps_path", c.StepsPath)
	set("template_root", c.TemplateRoot)
	set("export_path", c.ExportPath)
	set("min_results", strconv.Itoa(c.MinResults))
	set("move_ms", strconv.Itoa(c.MoveMillis))
	set("click_pause_ms", strconv.Itoa(c.ClickPauseMillis))
	set("settle_ms", strconv.Itoa(c.SettleMillis))
	set("copy_clicks", strconv.Itoa(c.CopyClicks))
	set("matcher", c.Matcher)
	set("stride", strconv.Itoa(c.Stride))
	set("refine", strconv.FormatBool(c.Refine))
	set("status_seconds", strconv.Itoa(c.StatusSeconds))
	set("page_size", strconv.Itoa(c.PageSize))
	return file.SaveTo(path)
}
