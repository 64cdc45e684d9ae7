package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	Session     string
	SessionFile string
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("EVENTSPHERE_SERVER", "http://localhost:3000"),
		Session:     os.Getenv("EVENTSPHERE_SESSION"),
		SessionFile: getEnvOrDefault("EVENTSPHERE_SESSION_FILE", defaultSessionFile()),
		Output:      "text",
		Verbose:     false,
	}
}

// LoadSession loads the session cookie from file if not already set
func (c *Config) LoadSession() error {
	if c.Session != "" {
		return nil
	}

	data, err := os.ReadFile(c.SessionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // No session file is fine
		}
		return err
	}

	c.Session = strings.TrimSpace(string(data))
	return nil
}

// SaveSession saves the session cookie to the session file
func (c *Config) SaveSession(value string) error {
	c.Session = value

	dir := filepath.Dir(c.SessionFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.SessionFile, []byte(value), 0600)
}

// ClearSession removes the saved session
func (c *Config) ClearSession() error {
	c.Session = ""
	if err := os.Remove(c.SessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".eventsphere/session"
	}
	return filepath.Join(home, ".eventsphere", "session")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
