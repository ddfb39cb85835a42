// Package config handles application configuration loading from a YAML file and environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"

	contextutils "jupyterchat/internal/utils"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chat server and the release tooling
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Chat extension settings exposed to the front-end
	Chat ChatConfig `json:"chat" yaml:"chat"`

	// Release tooling configuration
	Release ReleaseConfig `json:"release" yaml:"release"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port          string `json:"port" yaml:"port"`
	BaseURL       string `json:"base_url" yaml:"base_url"`
	SessionSecret string `json:"session_secret" yaml:"session_secret"`
	// Token is accepted via "Authorization: token <t>" or ?token=<t>, like a Jupyter server token.
	Token string `json:"token" yaml:"token"`
	// PasswordHash is a bcrypt hash produced by `adm password`.
	PasswordHash string   `json:"password_hash" yaml:"password_hash"`
	Debug        bool     `json:"debug" yaml:"debug"`
	LogLevel     string   `json:"log_level" yaml:"log_level"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins"`
}

// ChatConfig represents configuration consumed by the chat extension
type ChatConfig struct {
	PowerAutomateFlows PowerAutomateFlowsConfig `json:"power_automate_flows" yaml:"power_automate_flows"`
}

// PowerAutomateFlowsConfig groups the HTTP-triggered flows the extension talks to
type PowerAutomateFlowsConfig struct {
	FeedbackLogging FlowConfig `json:"feedback_logging" yaml:"feedback_logging"`
}

// FlowConfig describes a single HTTP-triggered flow
type FlowConfig struct {
	URL string `json:"url" yaml:"url"`
}

// GetURL returns the flow trigger URL
func (f FlowConfig) GetURL() string {
	return f.URL
}

// ReleaseConfig represents configuration for the version bump tooling
type ReleaseConfig struct {
	RepoRoot        string `json:"repo_root" yaml:"repo_root"`
	VersionFileGlob string `json:"version_file_glob" yaml:"version_file_glob"`
	VersionVariable string `json:"version_variable" yaml:"version_variable"`
	Manifest        string `json:"manifest" yaml:"manifest"`
	StatusCommand   string `json:"status_command" yaml:"status_command"`
	BumpCommand     string `json:"bump_command" yaml:"bump_command"`
	InstallCommand  string `json:"install_command" yaml:"install_command"`
	// KeepPatch disables normalizing the patch component on the first build tag.
	KeepPatch bool `json:"keep_patch" yaml:"keep_patch"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "jupyterchat-server"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	UseAutoSDK     bool              `json:"use_auto_sdk" yaml:"use_auto_sdk"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
}

// FeedbackURL returns the URL chat feedback is logged to
func (c *Config) FeedbackURL() string {
	return c.Chat.PowerAutomateFlows.FeedbackLogging.GetURL()
}

// ValidateServer checks the settings the HTTP server cannot run without
func (c *Config) ValidateServer() error {
	if c.Server.SessionSecret == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "server.session_secret must be set")
	}
	if url := c.FeedbackURL(); url != "" && !contextutils.IsValidURL(url) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "chat.power_automate_flows.feedback_logging.url is not a valid URL: %q", url)
	}
	return nil
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	return config, nil
}

// applyDefaults fills in values left empty by the file and the environment
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "/"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Chat.PowerAutomateFlows.FeedbackLogging.URL == "" {
		c.Chat.PowerAutomateFlows.FeedbackLogging.URL = os.Getenv(LegacyFeedbackURLEnv)
	}

	if c.Release.VersionFileGlob == "" {
		c.Release.VersionFileGlob = DefaultVersionFileGlob
	}
	if c.Release.VersionVariable == "" {
		c.Release.VersionVariable = DefaultVersionVariable
	}
	if c.Release.Manifest == "" {
		c.Release.Manifest = DefaultManifest
	}
	if c.Release.StatusCommand == "" {
		c.Release.StatusCommand = DefaultStatusCommand
	}
	if c.Release.BumpCommand == "" {
		c.Release.BumpCommand = DefaultBumpCommand
	}
	if c.Release.InstallCommand == "" {
		c.Release.InstallCommand = DefaultInstallCommand
	}

	if c.OpenTelemetry.ServiceName == "" {
		c.OpenTelemetry.ServiceName = DefaultServiceName
	}
	if c.OpenTelemetry.Protocol == "" {
		c.OpenTelemetry.Protocol = "grpc"
	}
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnv(c)
}

// overrideStructFromEnv recursively overrides struct fields with environment variables
func overrideStructFromEnv(v interface{}) {
	overrideStructFromEnvWithPrefix(v, "")
}

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				// Handle string slices (like CORS_ORIGINS)
				if field.Type().Elem().Kind() == reflect.String {
					slice := strings.Split(envVal, ",")
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				fieldPrefix := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
				if prefix != "" {
					fieldPrefix = prefix + "_" + fieldPrefix
				}
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), fieldPrefix)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file named by the environment, or config.yaml if present
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	// The default file is optional; everything has a default or an env override
	config, err := loadConfigFromFile(DefaultConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return config, err
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
