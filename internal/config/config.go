package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/retrogate/retrogate/internal/consts"
)

// Config represents gateway configuration. Values come from environment
// variables with sensible defaults; command-line flags may override them
// afterwards.
type Config struct {
	Host     string // RETROGATE_HOST
	Port     int    // RETROGATE_PORT
	Platform string // RETROGATE_PLATFORM: google, openai or anthropic
	Model    string // RETROGATE_MODEL, empty selects the platform default
	MaxTurns int    // RETROGATE_MAX_TURNS, conversation history bound
	LogLevel string // RETROGATE_LOG_LEVEL: debug, info, warn, error, none
	LogPath  string // RETROGATE_LOG_PATH, empty logs to stderr
	PidPath  string // RETROGATE_PID_PATH, empty disables the pidfile
}

// Load builds a Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Host:     consts.DefaultHost,
		Port:     consts.DefaultPort,
		Platform: "google",
		MaxTurns: consts.DefaultMaxTurns,
		LogLevel: "info",
	}

	if host := strings.TrimSpace(os.Getenv("RETROGATE_HOST")); host != "" {
		cfg.Host = host
	}

	if portStr := strings.TrimSpace(os.Getenv("RETROGATE_PORT")); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RETROGATE_PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if platform := strings.TrimSpace(os.Getenv("RETROGATE_PLATFORM")); platform != "" {
		cfg.Platform = strings.ToLower(platform)
	}

	cfg.Model = strings.TrimSpace(os.Getenv("RETROGATE_MODEL"))

	if turnsStr := strings.TrimSpace(os.Getenv("RETROGATE_MAX_TURNS")); turnsStr != "" {
		turns, err := strconv.Atoi(turnsStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RETROGATE_MAX_TURNS %q: %w", turnsStr, err)
		}
		cfg.MaxTurns = turns
	}

	if level := strings.TrimSpace(os.Getenv("RETROGATE_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	cfg.LogPath = strings.TrimSpace(os.Getenv("RETROGATE_LOG_PATH"))
	cfg.PidPath = strings.TrimSpace(os.Getenv("RETROGATE_PID_PATH"))

	return cfg, nil
}

// Validate checks that the configuration is usable before the gateway starts
// listening.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Host != "" {
		if ip := net.ParseIP(c.Host); ip == nil {
			// Hostnames are allowed; reject only obviously malformed values.
			if strings.ContainsAny(c.Host, " /") {
				return fmt.Errorf("invalid host: %q", c.Host)
			}
		}
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", c.MaxTurns)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
