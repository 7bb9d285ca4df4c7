package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	appDirName            = "todaybox"
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Add         string `toml:"add"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Toggle      string `toml:"toggle"`
	Today       string `toml:"today"`
	Delete      string `toml:"delete"`
	Detail      string `toml:"detail"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
	Edit        string `toml:"edit"`
	Sort        string `toml:"sort"`
	Filter      string `toml:"filter"`
	Tray        string `toml:"tray"`
	DueForward  string `toml:"due_forward"`
	DueBack     string `toml:"due_back"`
	TrayRefresh string `toml:"tray_refresh"`
}

type Config struct {
	Listen          string `toml:"listen"`
	DefaultFilter   string `toml:"default_filter"`
	DefaultSort     string `toml:"default_sort"`
	RefreshInterval string `toml:"refresh_interval"`
	DayRollover     string `toml:"day_rollover"`
	TrayMaxItems    int    `toml:"tray_max_items"`
	LogFile         string `toml:"log_file"`
	Keys            Keymap `toml:"keys"`
}

// ResolveConfigPath honours TODAYBOX_CONFIG, then the user config dir.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("TODAYBOX_CONFIG")); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		Listen:          "127.0.0.1:8765",
		DefaultFilter:   "all",
		DefaultSort:     "created",
		RefreshInterval: "5m",
		DayRollover:     "00:00",
		Keys:            defaultKeymap(),
	}
}

func defaultKeymap() Keymap {
	return Keymap{
		Quit:        "q",
		Add:         "a",
		Up:          "k",
		Down:        "j",
		Toggle:      " ",
		Today:       "t",
		Delete:      "d",
		Detail:      "enter",
		Confirm:     "enter",
		Cancel:      "esc",
		Edit:        "e",
		Sort:        "s",
		Filter:      "f",
		Tray:        "m",
		DueForward:  "]",
		DueBack:     "[",
		TrayRefresh: "r",
	}
}

// fillDefaults restores blank values a hand-edited file may have left out.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DefaultFilter == "" {
		c.DefaultFilter = def.DefaultFilter
	}
	if c.DefaultSort == "" {
		c.DefaultSort = def.DefaultSort
	}
	if c.RefreshInterval == "" {
		c.RefreshInterval = def.RefreshInterval
	}
	if c.DayRollover == "" {
		c.DayRollover = def.DayRollover
	}
	k, dk := &c.Keys, def.Keys
	for _, pair := range []struct {
		v   *string
		def string
	}{
		{&k.Quit, dk.Quit}, {&k.Add, dk.Add}, {&k.Up, dk.Up}, {&k.Down, dk.Down},
		{&k.Toggle, dk.Toggle}, {&k.Today, dk.Today}, {&k.Delete, dk.Delete},
		{&k.Detail, dk.Detail}, {&k.Confirm, dk.Confirm}, {&k.Cancel, dk.Cancel},
		{&k.Edit, dk.Edit}, {&k.Sort, dk.Sort}, {&k.Filter, dk.Filter}, {&k.Tray, dk.Tray},
		{&k.DueForward, dk.DueForward}, {&k.DueBack, dk.DueBack}, {&k.TrayRefresh, dk.TrayRefresh},
	} {
		if *pair.v == "" {
			*pair.v = pair.def
		}
	}
}

func (c Config) Validate() error {
	switch strings.ToLower(c.DefaultFilter) {
	case "all", "today":
	default:
		return fmt.Errorf("default_filter %q: want all or today", c.DefaultFilter)
	}
	switch strings.ToLower(c.DefaultSort) {
	case "created", "due":
	default:
		return fmt.Errorf("default_sort %q: want created or due", c.DefaultSort)
	}
	if _, err := c.Refresh(); err != nil {
		return err
	}
	if _, _, err := c.Rollover(); err != nil {
		return err
	}
	if c.TrayMaxItems < 0 {
		return fmt.Errorf("tray_max_items must not be negative")
	}
	return nil
}

// Refresh is the parsed refresh_interval; zero disables periodic refresh.
func (c Config) Refresh() (time.Duration, error) {
	if strings.TrimSpace(c.RefreshInterval) == "" || c.RefreshInterval == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("refresh_interval %q: want a positive duration like 5m", c.RefreshInterval)
	}
	return d, nil
}

// Rollover returns the hour and minute of day_rollover.
func (c Config) Rollover() (int, int, error) {
	return ParseClock(c.DayRollover)
}

// ParseClock reads an HH:MM wall clock time.
func ParseClock(v string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", v)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return hour, minute, nil
}
