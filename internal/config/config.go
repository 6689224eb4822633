package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mcncl/j2j/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for j2j
type Config struct {
	Tree   TreeConfig   `yaml:"tree"`
	Render RenderConfig `yaml:"render"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
}

// TreeConfig controls tree building
type TreeConfig struct {
	// MaxDepth caps document nesting; deeper documents fail instead of
	// exhausting memory.
	MaxDepth int `yaml:"max_depth" validate:"min=1,max=100000"`
}

// RenderConfig controls template rendering
type RenderConfig struct {
	JSONIndent int `yaml:"json_indent" validate:"min=0,max=16"`
	// StrictUndefined makes null or undefined output an error. Turning it
	// off renders those values as empty strings.
	StrictUndefined bool `yaml:"strict_undefined"`
}

// ServerConfig controls the HTTP service
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" validate:"min=1"`
}

// StoreConfig selects where parsed documents are kept between requests
type StoreConfig struct {
	Backend   string        `yaml:"backend" validate:"oneof=memory redis"`
	RedisAddr string        `yaml:"redis_addr" validate:"required_if=Backend redis"`
	TTL       time.Duration `yaml:"ttl" validate:"gt=0"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Tree: TreeConfig{
			MaxDepth: 512,
		},
		Render: RenderConfig{
			JSONIndent:      2,
			StrictUndefined: true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			MaxBodyBytes: 5 << 20,
		},
		Store: StoreConfig{
			Backend: "memory",
			TTL:     time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewConfigError(validationMessage(err), err)
	}
	return nil
}

func validationMessage(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var msgs []string
	for _, e := range validationErrs {
		field := yamlPath(e.Namespace())
		switch e.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "min", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, minParam(e)))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func minParam(e validator.FieldError) string {
	if e.Tag() == "min" {
		return "or equal to " + e.Param()
	}
	return e.Param()
}

// yamlPath turns "Config.store.redis_addr" into "store.redis_addr".
func yamlPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// LoadConfig loads configuration from a YAML file on top of the defaults
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads path, or the nearest discovered config file when path is
// empty, or the defaults when there is none.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return NewConfig(), nil
	}
	return LoadConfig(path)
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".j2j.yml", ".j2j.yaml", "j2j.yml", "j2j.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Overrides holds command-line values that take precedence over the file.
// Zero values mean "not set".
type Overrides struct {
	MaxDepth   int
	JSONIndent *int
	Addr       string
	LogLevel   string
}

// Apply merges o into c and re-validates.
func (c *Config) Apply(o Overrides) error {
	if o.MaxDepth > 0 {
		c.Tree.MaxDepth = o.MaxDepth
	}
	if o.JSONIndent != nil {
		c.Render.JSONIndent = *o.JSONIndent
	}
	if o.Addr != "" {
		c.Server.Addr = o.Addr
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	return c.Validate()
}
