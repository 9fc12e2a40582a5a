// Package config loads DigitPad settings from defaults, an optional YAML
// file, data/.env and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDataDir        = "./data"
	defaultEndpoint       = "http://127.0.0.1:5000"
	defaultUploadPath     = "/upload/"
	defaultPayload        = "dataurl"
	defaultExpectLabel    = true
	defaultWidth          = 280
	defaultHeight         = 280
	defaultStrokeWidth    = 5.0
	defaultDebounceMs     = 1000
	defaultBackground     = "white"
	defaultRequireContent = true
	defaultReport         = "label"
	defaultTimeoutMs      = 10000
	defaultDiscoverMs     = 3000

	// EndpointMDNS asks the app to browse the LAN for a recognizer.
	EndpointMDNS = "mdns"
)

// Config holds runtime configuration values.
type Config struct {
	Endpoint       string  `yaml:"endpoint"`
	UploadPath     string  `yaml:"upload_path"`
	Payload        string  `yaml:"payload"`
	ExpectLabel    bool    `yaml:"expect_label"`
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	StrokeWidth    float64 `yaml:"stroke_width"`
	DebounceMs     int     `yaml:"debounce_ms"`
	Background     string  `yaml:"background"`
	RequireContent bool    `yaml:"require_content"`
	Report         string  `yaml:"report"`
	TimeoutMs      int     `yaml:"timeout_ms"`
	DiscoverMs     int     `yaml:"discover_ms"`
	StatusAddr     string  `yaml:"status_addr"`
	Advertise      bool    `yaml:"advertise"`
	Debug          bool    `yaml:"debug"`
	DataDir        string  `yaml:"-"`
}

// Debounce is the quiet period before a drawing is sent.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Config) DiscoverTimeout() time.Duration {
	return time.Duration(c.DiscoverMs) * time.Millisecond
}

// UsesMDNS reports whether the recognizer must be discovered.
func (c Config) UsesMDNS() bool {
	return strings.EqualFold(c.Endpoint, EndpointMDNS)
}

func Defaults() Config {
	return Config{
		Endpoint:       defaultEndpoint,
		UploadPath:     defaultUploadPath,
		Payload:        defaultPayload,
		ExpectLabel:    defaultExpectLabel,
		Width:          defaultWidth,
		Height:         defaultHeight,
		StrokeWidth:    defaultStrokeWidth,
		DebounceMs:     defaultDebounceMs,
		Background:     defaultBackground,
		RequireContent: defaultRequireContent,
		Report:         defaultReport,
		TimeoutMs:      defaultTimeoutMs,
		DiscoverMs:     defaultDiscoverMs,
		DataDir:        defaultDataDir,
	}
}

// Load reads configuration. The YAML file is DIGITPAD_CONFIG or
// <data dir>/digitpad.yaml; a missing file is not an error.
func Load() (Config, error) {
	cfg := Defaults()
	cfg.DataDir = envString("DIGITPAD_DATA_DIR", cfg.DataDir)

	yamlPath := envString("DIGITPAD_CONFIG", filepath.Join(cfg.DataDir, "digitpad.yaml"))
	if err := loadYAMLFile(yamlPath, &cfg); err != nil {
		return Config{}, err
	}
	if err := loadEnvFile(filepath.Join(cfg.DataDir, ".env")); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Endpoint = envString("DIGITPAD_ENDPOINT", cfg.Endpoint)
	cfg.UploadPath = envString("DIGITPAD_UPLOAD_PATH", cfg.UploadPath)
	cfg.Payload = envString("DIGITPAD_PAYLOAD", cfg.Payload)
	cfg.Background = envString("DIGITPAD_BACKGROUND", cfg.Background)
	cfg.Report = envString("DIGITPAD_REPORT", cfg.Report)
	cfg.StatusAddr = envString("DIGITPAD_STATUS_ADDR", cfg.StatusAddr)

	bools := []struct {
		key string
		dst *bool
	}{
		{"DIGITPAD_EXPECT_LABEL", &cfg.ExpectLabel},
		{"DIGITPAD_REQUIRE_CONTENT", &cfg.RequireContent},
		{"DIGITPAD_ADVERTISE", &cfg.Advertise},
		{"DIGITPAD_DEBUG", &cfg.Debug},
	}
	for _, it := range bools {
		v, err := envBool(it.key, *it.dst)
		if err != nil {
			return err
		}
		*it.dst = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DIGITPAD_WIDTH", &cfg.Width},
		{"DIGITPAD_HEIGHT", &cfg.Height},
		{"DIGITPAD_DEBOUNCE_MS", &cfg.DebounceMs},
		{"DIGITPAD_TIMEOUT_MS", &cfg.TimeoutMs},
		{"DIGITPAD_DISCOVER_MS", &cfg.DiscoverMs},
	}
	for _, it := range ints {
		v, err := envInt(it.key, *it.dst)
		if err != nil {
			return err
		}
		*it.dst = v
	}

	stroke, err := envFloat("DIGITPAD_STROKE_WIDTH", cfg.StrokeWidth)
	if err != nil {
		return err
	}
	cfg.StrokeWidth = stroke
	return nil
}

// normalize folds the enumerated settings to lower case, wherever they came from.
func (c *Config) normalize() {
	c.Payload = strings.ToLower(strings.TrimSpace(c.Payload))
	c.Background = strings.ToLower(strings.TrimSpace(c.Background))
	c.Report = strings.ToLower(strings.TrimSpace(c.Report))
}

// Validate rejects values the pad cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("DIGITPAD_ENDPOINT is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.StrokeWidth <= 0 {
		return fmt.Errorf("DIGITPAD_STROKE_WIDTH must be > 0")
	}
	if c.DebounceMs <= 0 {
		return fmt.Errorf("DIGITPAD_DEBOUNCE_MS must be > 0")
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("DIGITPAD_TIMEOUT_MS must be > 0")
	}
	if c.DiscoverMs <= 0 {
		return fmt.Errorf("DIGITPAD_DISCOVER_MS must be > 0")
	}
	switch c.Payload {
	case "dataurl", "raw":
	default:
		return fmt.Errorf("DIGITPAD_PAYLOAD must be dataurl or raw, got %q", c.Payload)
	}
	switch c.Background {
	case "white", "transparent":
	default:
		return fmt.Errorf("DIGITPAD_BACKGROUND must be white or transparent, got %q", c.Background)
	}
	switch c.Report {
	case "label", "log":
	default:
		return fmt.Errorf("DIGITPAD_REPORT must be label or log, got %q", c.Report)
	}
	return nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file without overriding
// variables that are already set.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.Trim(strings.TrimSpace(value), `"'`), true
}
