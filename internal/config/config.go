// Package config holds the persisted session configuration for the Strateos
// client: API root, organization context, and authentication material. A
// Config is constructed once and handed to the connection by reference; there
// is no ambient global.
//
// Values merge from three sources with strict precedence: explicit overrides
// (CLI flags) beat environment variables, which beat the persisted dotfile.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// DefaultAPIRoot is the API endpoint used when none is configured.
const DefaultAPIRoot = "https://secure.strateos.com"

// DefaultConfigFile is the name of the dotfile in the user's home directory.
const DefaultConfigFile = ".strateos.json"

// Environment variables recognized by ApplyEnv.
const (
	EnvAPIRoot        = "STRATEOS_API_ROOT"
	EnvEmail          = "STRATEOS_EMAIL"
	EnvToken          = "STRATEOS_TOKEN"
	EnvOrganizationID = "STRATEOS_ORGANIZATION_ID"
	EnvSigningKey     = "STRATEOS_SIGNING_KEY"
)

// Feature groups the client acts on; anything else the server reports is
// dropped on save.
var relevantFeatureGroups = map[string]bool{
	"can_submit_autoprotocol": true,
	"can_upload_packages":     true,
}

var validate = validator.New()

// Config is the session configuration. JSON tags match the dotfile layout
// written by earlier releases of the CLI.
type Config struct {
	APIRoot        string   `json:"api_root" validate:"required,url"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Token          string   `json:"token,omitempty"`
	OrganizationID string   `json:"organization_id,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	SigningKeyPath string   `json:"signing_key,omitempty"`
	FeatureGroups  []string `json:"feature_groups,omitempty"`
	Analytics      bool     `json:"analytics"`

	path string
}

// Overrides carries explicit values, typically bound to CLI flags. A non-empty
// field replaces whatever the environment or the dotfile provided.
type Overrides struct {
	APIRoot        string
	Email          string
	Token          string
	OrganizationID string
	SigningKeyPath string
}

// DefaultPath returns the path of the dotfile in the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigFile), nil
}

// Load reads the configuration from the given file. A missing file is not an
// error: the returned Config carries defaults and will persist to that path
// on the next Save. If path is empty the default dotfile location is used.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		APIRoot:   DefaultAPIRoot,
		Analytics: true,
		path:      path,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}
	if cfg.APIRoot == "" {
		cfg.APIRoot = DefaultAPIRoot
	}
	cfg.APIRoot = normalizeAPIRoot(cfg.APIRoot)
	cfg.path = path
	return cfg, nil
}

// Resolve loads the dotfile, layers environment variables on top, then the
// explicit overrides, and validates the result. This is the single entry
// point the CLI and library use to build a session configuration.
func Resolve(path string, o Overrides) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration. A .env file
// in the working directory is honored but never overrides variables already
// present in the process environment.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(EnvAPIRoot); v != "" {
		c.APIRoot = normalizeAPIRoot(v)
	}
	if v := os.Getenv(EnvEmail); v != "" {
		c.Email = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvOrganizationID); v != "" {
		c.OrganizationID = v
	}
	if v := os.Getenv(EnvSigningKey); v != "" {
		c.SigningKeyPath = v
	}
}

// ApplyOverrides overlays explicit values onto the configuration.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.APIRoot != "" {
		c.APIRoot = normalizeAPIRoot(o.APIRoot)
	}
	if o.Email != "" {
		c.Email = o.Email
	}
	if o.Token != "" {
		c.Token = o.Token
	}
	if o.OrganizationID != "" {
		c.OrganizationID = o.OrganizationID
	}
	if o.SigningKeyPath != "" {
		c.SigningKeyPath = o.SigningKeyPath
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		var err error
		c.path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the complete configuration to the given file with mode 0600.
// The whole content is written in one call so a reader never observes a
// partially updated file.
func (c *Config) SaveTo(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	out := *c
	out.FeatureGroups = filterFeatureGroups(c.FeatureGroups)

	raw, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode configuration: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	c.path = path
	return nil
}

// Path returns the file this configuration persists to.
func (c *Config) Path() string {
	return c.path
}

// EnsureUserID assigns a generated user id if none has been persisted yet.
// Returns true if a new id was assigned.
func (c *Config) EnsureUserID() bool {
	if c.UserID != "" {
		return false
	}
	c.UserID = uuid.NewString()
	return true
}

// HasFeature reports whether the given feature group was granted at login.
func (c *Config) HasFeature(name string) bool {
	for _, g := range c.FeatureGroups {
		if g == name {
			return true
		}
	}
	return false
}

func filterFeatureGroups(groups []string) []string {
	var kept []string
	for _, g := range groups {
		if relevantFeatureGroups[g] {
			kept = append(kept, g)
		}
	}
	return kept
}

func normalizeAPIRoot(root string) string {
	root = strings.TrimRight(root, "/")
	if !strings.HasPrefix(root, "http://") && !strings.HasPrefix(root, "https://") {
		root = "https://" + root
	}
	return root
}
