package config

import "time"

// Configuration sources
const (
	// ConfigFileEnv names the environment variable pointing at the YAML config file
	ConfigFileEnv = "JUPYTERCHAT_CONFIG_FILE"
	// DefaultConfigFile is read from the working directory when ConfigFileEnv is unset
	DefaultConfigFile = "config.yaml"
	// LegacyFeedbackURLEnv is the variable the front-end used before the config endpoint existed
	LegacyFeedbackURLEnv = "TWD_FEEDBACK_LOGGING_FLOW"
)

// Server defaults
const (
	DefaultPort        = "8888"
	DefaultServiceName = "jupyterchat-server"
)

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout      = 60 * time.Second
	FeedbackRelayTimeout    = 15 * time.Second
	ServerShutdownTimeout   = 30 * time.Second
	TelemetryFlushTimeout   = 5 * time.Second
	ServerReadHeaderTimeout = 10 * time.Second

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	SessionName = "jupyterchat-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:;"
)

// Release defaults, matching the layout of the jupyter-chat monorepo
const (
	DefaultVersionFileGlob = "python/**/_version.py"
	DefaultVersionVariable = "__version__"
	DefaultManifest        = "package.json"
	DefaultStatusCommand   = "git status --porcelain"
	DefaultBumpCommand     = "jlpm run lerna version --no-push --force-publish --no-git-tag-version"
	DefaultInstallCommand  = "jlpm"
)
