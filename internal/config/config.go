package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL string `yaml:"ttl"` // content cache TTL
	} `yaml:"questions"`
	Scoring struct {
		FinalValue   int `yaml:"finalValue"`   // practice-mode FINAL substitute
		DefaultValue int `yaml:"defaultValue"` // fallback when face value absent
	} `yaml:"scoring"`
	Matching struct {
		// Edit-distance tiers; tune against a labeled answer corpus rather
		// than treating the defaults as fixed.
		ExactMaxLen   int `yaml:"exactMaxLen"`
		OneEditMaxLen int `yaml:"oneEditMaxLen"`
	} `yaml:"matching"`
	Admins []string `yaml:"admins"` // user IDs with resolver privilege
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
