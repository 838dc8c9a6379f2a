package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/piivault/config"
	ConfigFileName    = "piivault.yml"
)

// secretAttributes are never printed with their values.
var secretAttributes = map[string]bool{
	"data_key":       true,
	"signing_key":    true,
	"admin_password": true,
	"database_url":   true,
}

// VaultConfig holds all vault server configuration settings
type VaultConfig struct {
	// DatabaseURL is the Postgres connection string
	DatabaseURL string `yaml:"database_url" json:"database_url" validate:"required"`

	// DataKey is the base64-encoded 32-byte field encryption key
	DataKey string `yaml:"data_key" json:"data_key" validate:"required,base64"`

	// SigningKey signs session tokens
	SigningKey string `yaml:"signing_key" json:"signing_key" validate:"required"`

	// AdminUsername is the bootstrap principal created on startup
	AdminUsername string `yaml:"admin_username" json:"admin_username"`

	// AdminPassword is the bootstrap principal's password
	AdminPassword string `yaml:"admin_password" json:"admin_password"`

	// BindAddress is the listen address for the API server
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// Port is the listen port for the API server
	Port int `yaml:"port" json:"port" validate:"gte=1,lte=65535"`

	// SessionTTL is the session token lifetime in seconds
	SessionTTL int `yaml:"session_ttl" json:"session_ttl" validate:"gte=1"`

	// PurgeTokensOnDelete removes tokens pointing at a record when the
	// record is deleted. Off by default so issued tokens keep resolving.
	PurgeTokensOnDelete bool `yaml:"purge_tokens_on_delete" json:"purge_tokens_on_delete"`

	// AuditEnabled enables the structured audit log
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *VaultConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *VaultConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// Watch reloads the configuration whenever the config file changes. It blocks
// until the watcher fails, so run it on its own goroutine. onReload is called
// after each successful reload and may be nil.
func Watch(onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(Get().ConfigFilePath())); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != ConfigFileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := Reload(); err != nil {
				continue
			}
			if onReload != nil {
				onReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// newDefault returns a config with default values
func newDefault() *VaultConfig {
	return &VaultConfig{
		AdminUsername:       "admin",
		BindAddress:         "0.0.0.0",
		Port:                8080,
		SessionTTL:          600,
		PurgeTokensOnDelete: false,
		AuditEnabled:        true,
		sources:             make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*VaultConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("PIIVAULT_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig VaultConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"database_url", "data_key", "signing_key",
		"admin_username", "admin_password",
		"bind_address", "port", "session_ttl",
		"purge_tokens_on_delete", "audit_enabled",
	}
}

func (c *VaultConfig) applyFileConfig(file *VaultConfig) {
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.DataKey != "" {
		c.DataKey = file.DataKey
		c.sources["data_key"] = "file"
	}
	if file.SigningKey != "" {
		c.SigningKey = file.SigningKey
		c.sources["signing_key"] = "file"
	}
	if file.AdminUsername != "" {
		c.AdminUsername = file.AdminUsername
		c.sources["admin_username"] = "file"
	}
	if file.AdminPassword != "" {
		c.AdminPassword = file.AdminPassword
		c.sources["admin_password"] = "file"
	}
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != 0 {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.SessionTTL != 0 {
		c.SessionTTL = file.SessionTTL
		c.sources["session_ttl"] = "file"
	}
	if file.PurgeTokensOnDelete {
		c.PurgeTokensOnDelete = true
		c.sources["purge_tokens_on_delete"] = "file"
	}
}

func (c *VaultConfig) applyEnvConfig() {
	if val := os.Getenv("PIIVAULT_DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	} else if val := os.Getenv("DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	}
	if val := os.Getenv("PIIVAULT_DATA_KEY"); val != "" {
		c.DataKey = val
		c.sources["data_key"] = "environment"
	}
	if val := os.Getenv("PIIVAULT_SIGNING_KEY"); val != "" {
		c.SigningKey = val
		c.sources["signing_key"] = "environment"
	}
	if val := os.Getenv("PIIVAULT_ADMIN_USERNAME"); val != "" {
		c.AdminUsername = val
		c.sources["admin_username"] = "environment"
	}
	if val := os.Getenv("PIIVAULT_ADMIN_PASSWORD"); val != "" {
		c.AdminPassword = val
		c.sources["admin_password"] = "environment"
	}
	if val := os.Getenv("PIIVAULT_BIND_ADDRESS"); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = "environment"
	}
	if val := os.Getenv("PIIVAULT_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.Port = i
			c.sources["port"] = "environment"
		}
	}
	if val := os.Getenv("PIIVAULT_SESSION_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SessionTTL = i
			c.sources["session_ttl"] = "environment"
		}
	}
	if val := os.Getenv("PIIVAULT_PURGE_TOKENS_ON_DELETE"); val != "" {
		c.PurgeTokensOnDelete = val == "true" || val == "1"
		c.sources["purge_tokens_on_delete"] = "environment"
	}
	if val := os.Getenv("PIIVAULT_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = val == "true" || val == "1"
		c.sources["audit_enabled"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *VaultConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *VaultConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// SessionDuration returns the session TTL as a duration
func (c *VaultConfig) SessionDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Second
}

// ListenAddr returns the bind address and port joined for net.Listen
func (c *VaultConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}

var validate = validator.New()

// Validate validates the configuration
func (c *VaultConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			field := invalid[0]
			return fmt.Errorf("invalid configuration: %s fails %q", jsonFieldName(field.StructField()), field.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// jsonFieldName maps a struct field name to its config attribute name.
func jsonFieldName(structField string) string {
	t := reflect.TypeOf(VaultConfig{})
	if f, ok := t.FieldByName(structField); ok {
		if tag := f.Tag.Get("json"); tag != "" {
			return strings.Split(tag, ",")[0]
		}
	}
	return structField
}

// Attributes returns all configuration attributes with their values and
// sources. Secret values are redacted.
func (c *VaultConfig) Attributes() []Attribute {
	values := map[string]string{
		"database_url":           c.DatabaseURL,
		"data_key":               c.DataKey,
		"signing_key":            c.SigningKey,
		"admin_username":         c.AdminUsername,
		"admin_password":         c.AdminPassword,
		"bind_address":           c.BindAddress,
		"port":                   strconv.Itoa(c.Port),
		"session_ttl":            strconv.Itoa(c.SessionTTL),
		"purge_tokens_on_delete": strconv.FormatBool(c.PurgeTokensOnDelete),
		"audit_enabled":          strconv.FormatBool(c.AuditEnabled),
	}

	attrs := make([]Attribute, 0, len(values))
	for _, name := range attributeNames() {
		value := values[name]
		if secretAttributes[name] && value != "" {
			value = "(redacted)"
		}
		attrs = append(attrs, Attribute{Name: name, Value: value, Source: c.Source(name)})
	}
	return attrs
}

// FormatText returns a text representation of the configuration
func (c *VaultConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *VaultConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
