package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// HomeEnv overrides the data directory (default ~/.runcoach)
const HomeEnv = "RUNCOACH_HOME"

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava"`
	Athlete AthleteConfig `json:"athlete"`
	Display DisplayConfig `json:"display"`
	Server  ServerConfig  `json:"server"`
	LLM     LLMConfig     `json:"llm"`
	Logging LoggingConfig `json:"logging"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id" env:"STRAVA_CLIENT_ID"`
	ClientSecret string `json:"client_secret" env:"STRAVA_CLIENT_SECRET"`
	// RedirectURL is used by the web flow. The terminal flow always uses its local callback.
	RedirectURL string `json:"redirect_url" env:"STRAVA_REDIRECT_URL"`
}

// AthleteConfig seeds the runner profile on first start
type AthleteConfig struct {
	DisplayName  string  `json:"display_name"`
	FitnessLevel string  `json:"fitness_level"`
	WeeklyGoalKm float64 `json:"weekly_goal_km"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// ServerConfig holds web API settings
type ServerConfig struct {
	Addr string `json:"addr" env:"RUNCOACH_ADDR"`
}

// LLMConfig holds the chat-completions endpoint used for training plans
type LLMConfig struct {
	APIKey         string `json:"api_key" env:"OPENAI_API_KEY"`
	Model          string `json:"model" env:"OPENAI_MODEL"`
	BaseURL        string `json:"base_url" env:"OPENAI_BASE_URL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"RUNCOACH_LLM_TIMEOUT_SECONDS"`
}

// LoggingConfig controls log level and destination
type LoggingConfig struct {
	Level string `json:"level" env:"RUNCOACH_LOG_LEVEL"`
	File  string `json:"file" env:"RUNCOACH_LOG_FILE"`
	JSON  bool   `json:"json" env:"RUNCOACH_LOG_JSON"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

var fitnessLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			FitnessLevel: "beginner",
			WeeklyGoalKm: 20,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		LLM: LLMConfig{
			Model:          "gpt-4o",
			BaseURL:        "https://api.openai.com/v1",
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "runcoach.log",
		},
	}
}

// Load reads the configuration from <dir>/config.json and applies environment overrides
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// FromEnv builds a configuration from defaults and environment variables only
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// applyDefaults fills in missing values
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Athlete.FitnessLevel == "" {
		c.Athlete.FitnessLevel = defaults.Athlete.FitnessLevel
	}
	if c.Athlete.WeeklyGoalKm == 0 {
		c.Athlete.WeeklyGoalKm = defaults.Athlete.WeeklyGoalKm
	}
	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if c.Display.PaceUnit == "" {
		c.Display.PaceUnit = defaults.Display.PaceUnit
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaults.LLM.Model
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaults.LLM.TimeoutSeconds
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.File == "" {
		c.Logging.File = defaults.Logging.File
	}
}

// Save writes the configuration to <dir>/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// Holds secrets
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
		RedirectURL:  "http://localhost:8080/strava/callback",
	}
	example.LLM.APIKey = "YOUR_OPENAI_API_KEY"

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if err := c.ValidateStrava(); err != nil {
		return err
	}
	return c.ValidateSettings()
}

// ValidateSettings checks everything except the Strava credentials, so the
// app can run offline before it has been connected
func (c *Config) ValidateSettings() error {
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	if c.Athlete.FitnessLevel != "" && !fitnessLevels[c.Athlete.FitnessLevel] {
		return fmt.Errorf("athlete.fitness_level must be beginner, intermediate or advanced, got %q", c.Athlete.FitnessLevel)
	}
	if c.Athlete.WeeklyGoalKm < 0 {
		return fmt.Errorf("athlete.weekly_goal_km must not be negative, got %v", c.Athlete.WeeklyGoalKm)
	}

	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must not be negative, got %d", c.LLM.TimeoutSeconds)
	}

	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}

	return nil
}

// ValidateStrava checks only the Strava credentials
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return nil
}

// HasLLM reports whether a usable API key is configured
func (c *Config) HasLLM() bool {
	return c.LLM.APIKey != "" && c.LLM.APIKey != "YOUR_OPENAI_API_KEY"
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".runcoach"), nil
}

// ResolvePath returns p unchanged when absolute, otherwise joined to the config directory
func ResolvePath(p string) (string, error) {
	if p == "" || filepath.IsAbs(p) {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p), nil
}
