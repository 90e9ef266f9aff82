package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-version"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"devboot/internal/app/errors"
)

// Config represents the application configuration
type Config struct {
	Project    Project        `yaml:"project"`
	Runtime    Runtime        `yaml:"runtime"`
	Ports      Ports          `yaml:"ports"`
	Cleanup    Cleanup        `yaml:"cleanup"`
	Install    Install        `yaml:"install"`
	Validation Validation     `yaml:"validation"`
	Services   Services       `yaml:"services"`
	Retry      Retry          `yaml:"retry"`
	Critical   []CriticalRule `yaml:"critical"`
	Monitor    Monitor        `yaml:"monitor"`
	Report     Report         `yaml:"report"`
	Notify     Notify         `yaml:"notify"`
	Logging    Logging        `yaml:"logging"`
	Version    int            `yaml:"version"`

	requiredOrder []string
}

// Project describes the checkout being bootstrapped
type Project struct {
	Dir     string `yaml:"dir"`
	EnvFile string `yaml:"env_file"`
}

// Runtime describes the language runtime whose version is checked during preflight
type Runtime struct {
	Executable  string   `yaml:"executable"`
	VersionArgs []string `yaml:"version_args"`
	MinVersion  string   `yaml:"min_version"`
}

// Ports describes required and well-known service ports
type Ports struct {
	Required      map[string]int `yaml:"required"`
	WellKnown     map[string]int `yaml:"well_known"`
	AutoKill      bool           `yaml:"auto_kill"`
	AllowFallback bool           `yaml:"allow_fallback"`
	MaxRetries    int            `yaml:"max_retries"`
	RetryDelay    time.Duration  `yaml:"retry_delay"`
}

// Cleanup lists cache and build paths removed before install
type Cleanup struct {
	Paths []string `yaml:"paths"`
}

// Install lists dependency installation strategies tried in order
type Install struct {
	OutputDir  string     `yaml:"output_dir"`
	Strategies []Strategy `yaml:"strategies"`
}

// Strategy is one way of installing dependencies
type Strategy struct {
	Name       string        `yaml:"name"`
	Executable string        `yaml:"executable"`
	Args       []string      `yaml:"args"`
	Script     string        `yaml:"script"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Validation lists what must exist after install
type Validation struct {
	RequiredFiles []string `yaml:"required_files"`
	RequiredDirs  []string `yaml:"required_dirs"`
	Executables   []string `yaml:"executables"`
	Critical      []string `yaml:"critical"`
}

// Services describes how the orchestrated service is prepared and started
type Services struct {
	Migrate       Command       `yaml:"migrate"`
	Build         Command       `yaml:"build"`
	BuildOutput   string        `yaml:"build_output"`
	Start         Command       `yaml:"start"`
	ReadyPattern  string        `yaml:"ready_pattern"`
	HealthURL     string        `yaml:"health_url"`
	HealthTimeout time.Duration `yaml:"health_timeout"`
}

// Command is an external command given as executable plus arguments, or as a shell script
type Command struct {
	Executable string        `yaml:"executable"`
	Args       []string      `yaml:"args"`
	Script     string        `yaml:"script"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Retry is the default retry policy for external commands
type Retry struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	Timeout           time.Duration `yaml:"timeout"`
}

// CriticalRule maps a command substring to the paths cleared before that command is retried
type CriticalRule struct {
	Match   string   `yaml:"match"`
	Cleanup []string `yaml:"cleanup"`
}

// Monitor configures the post-run self-check loop
type Monitor struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Manifest string `yaml:"manifest"`
}

// Report configures where diagnostic output is persisted
type Report struct {
	Path         string `yaml:"path"`
	EmergencyDir string `yaml:"emergency_dir"`
}

// Notify configures the escalation notification hook
type Notify struct {
	SentryDSN string `yaml:"sentry_dsn"`
}

// Logging configures the application logger
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Strategy returns the command described by the strategy
func (s Strategy) Command() Command {
	return Command{Executable: s.Executable, Args: s.Args, Script: s.Script, Timeout: s.Timeout}
}

// IsZero reports whether no command is configured
func (c Command) IsZero() bool {
	return c.Executable == "" && c.Script == ""
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}

	cfg.Project.Dir = "."
	cfg.Project.EnvFile = DefaultEnvFile

	cfg.Runtime.Executable = "node"
	cfg.Runtime.VersionArgs = []string{"--version"}
	cfg.Runtime.MinVersion = "18.0.0"

	cfg.Ports.Required = map[string]int{"app": 5000}
	cfg.Ports.WellKnown = map[string]int{"app": 5000, "database": 5432, "cache": 6379}
	cfg.Ports.MaxRetries = PortRetries
	cfg.Ports.RetryDelay = PortRetryDelay

	cfg.Cleanup.Paths = []string{".next", "dist", "node_modules/.cache", "*.tsbuildinfo"}

	cfg.Install.OutputDir = "node_modules"
	cfg.Install.Strategies = []Strategy{
		{Name: "fast install", Executable: "npm", Args: []string{"ci", "--prefer-offline", "--no-audit"}},
		{Name: "standard install", Executable: "npm", Args: []string{"install", "--no-audit"}},
		{Name: "permissive install", Executable: "npm", Args: []string{"install", "--legacy-peer-deps", "--no-audit"}},
	}

	cfg.Validation.RequiredFiles = []string{"package.json"}
	cfg.Validation.RequiredDirs = []string{"node_modules"}
	cfg.Validation.Critical = []string{"package.json", "node_modules"}

	cfg.Services.Build = Command{Executable: "npm", Args: []string{"run", "build"}}
	cfg.Services.BuildOutput = "dist"
	cfg.Services.HealthTimeout = HealthTimeout

	cfg.Retry.MaxAttempts = RetryAttempts
	cfg.Retry.InitialDelay = RetryInitialDelay
	cfg.Retry.BackoffMultiplier = RetryBackoffMultiplier
	cfg.Retry.Timeout = CommandTimeout

	cfg.Critical = []CriticalRule{
		{Match: "npm ci", Cleanup: []string{"node_modules"}},
		{Match: "npm install", Cleanup: []string{"node_modules/.cache"}},
		{Match: "run build", Cleanup: []string{".next", "dist"}},
	}

	cfg.Monitor.Enabled = true
	cfg.Monitor.Schedule = MonitorSchedule
	cfg.Monitor.Manifest = "package.json"

	cfg.Report.Path = DefaultReportFile
	cfg.Report.EmergencyDir = DefaultEmergencyDir

	cfg.Logging.Level = DefaultLogLevel
	cfg.Logging.Format = DefaultLogFormat
	cfg.Logging.File = DefaultLogFile

	return cfg
}

// Load loads the configuration from devboot.yaml in the working directory
func Load() (*Config, error) {
	return LoadFile(FileName)
}

// LoadFile loads the configuration from the given file, falling back to defaults when it does not exist
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}

		return nil, errors.ErrFailedToReadConfig
	}

	return Parse(data)
}

// Parse decodes devboot.yaml content over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.ErrFailedToReadConfig
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.ZeroFields = true
	}); err != nil {
		return nil, errors.ErrFailedToParseConfig
	}

	order, err := parseRequiredOrder(data)
	if err != nil {
		return nil, errors.ErrFailedToParseConfig
	}

	cfg.requiredOrder = order

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}

	return cfg, nil
}

// ApplyDefaults fills zero values left by a partial configuration file
func (c *Config) ApplyDefaults() {
	if c.Project.Dir == "" {
		c.Project.Dir = "."
	}

	if c.Ports.MaxRetries == 0 {
		c.Ports.MaxRetries = PortRetries
	}

	if c.Ports.RetryDelay == 0 {
		c.Ports.RetryDelay = PortRetryDelay
	}

	if c.Retry.Timeout == 0 {
		c.Retry.Timeout = CommandTimeout
	}

	if c.Services.HealthTimeout == 0 {
		c.Services.HealthTimeout = HealthTimeout
	}

	if c.Monitor.Schedule == "" {
		c.Monitor.Schedule = MonitorSchedule
	}

	if c.Report.Path == "" {
		c.Report.Path = DefaultReportFile
	}

	if c.Report.EmergencyDir == "" {
		c.Report.EmergencyDir = DefaultEmergencyDir
	}

	for i := range c.Install.Strategies {
		if c.Install.Strategies[i].Name == "" {
			c.Install.Strategies[i].Name = fmt.Sprintf("strategy %d", i+1)
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateRetry(); err != nil {
		return err
	}

	if err := c.validatePorts(); err != nil {
		return err
	}

	if err := c.validateRuntime(); err != nil {
		return err
	}

	for _, s := range c.Install.Strategies {
		if s.Command().IsZero() {
			return fmt.Errorf("%w: '%s'", errors.ErrStrategyCommandRequired, s.Name)
		}
	}

	return nil
}

// ProjectDir returns the absolute project directory
func (c *Config) ProjectDir() (string, error) {
	dir, err := filepath.Abs(c.Project.Dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrFailedToGetWorkingDir, err)
	}

	return dir, nil
}

// Resolve returns path joined to the project directory unless it is already absolute
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	dir, err := c.ProjectDir()
	if err != nil {
		return path
	}

	return filepath.Join(dir, path)
}

// RequiredServices returns the required port service names in declaration order, or ordered by port when the order is unknown
func (c *Config) RequiredServices() []string {
	if len(c.requiredOrder) != len(c.Ports.Required) {
		return sortedByPort(c.Ports.Required)
	}

	for _, name := range c.requiredOrder {
		if _, ok := c.Ports.Required[name]; !ok {
			return sortedByPort(c.Ports.Required)
		}
	}

	return append([]string{}, c.requiredOrder...)
}

// WellKnownServices returns the well-known port service names ordered by port
func (c *Config) WellKnownServices() []string {
	return sortedByPort(c.Ports.WellKnown)
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.ErrInvalidRetryAttempts
	}

	if c.Retry.BackoffMultiplier < 1 {
		return errors.ErrInvalidRetryBackoff
	}

	if c.Retry.InitialDelay < 0 {
		return errors.ErrInvalidRetryBackoff
	}

	return nil
}

func (c *Config) validatePorts() error {
	seen := make(map[int]string, len(c.Ports.Required))

	for _, name := range c.RequiredServices() {
		port := c.Ports.Required[name]
		if port < MinPort || port > MaxPort {
			return fmt.Errorf("%w: %s=%d", errors.ErrInvalidPort, name, port)
		}

		if other, ok := seen[port]; ok {
			return fmt.Errorf("%w: %d used by '%s' and '%s'", errors.ErrDuplicatePort, port, other, name)
		}

		seen[port] = name
	}

	for name, port := range c.Ports.WellKnown {
		if port < MinPort || port > MaxPort {
			return fmt.Errorf("%w: %s=%d", errors.ErrInvalidPort, name, port)
		}
	}

	return nil
}

func (c *Config) validateRuntime() error {
	if c.Runtime.MinVersion == "" {
		return nil
	}

	if _, err := version.NewVersion(c.Runtime.MinVersion); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidMinVersion, err)
	}

	return nil
}

// parseRequiredOrder reads devboot.yaml and extracts the declaration order of ports.required
func parseRequiredOrder(data []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, nil
	}

	ports := mappingValue(doc, "ports")
	if ports == nil {
		return nil, nil
	}

	required := mappingValue(ports, "required")
	if required == nil {
		return nil, nil
	}

	order := make([]string, 0, len(required.Content)/2)
	for i := 0; i < len(required.Content); i += 2 {
		order = append(order, required.Content[i].Value)
	}

	return order, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key && node.Content[i+1].Kind == yaml.MappingNode {
			return node.Content[i+1]
		}
	}

	return nil
}

func sortedByPort(ports map[string]int) []string {
	names := make([]string, 0, len(ports))
	for name := range ports {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		if ports[names[i]] == ports[names[j]] {
			return names[i] < names[j]
		}

		return ports[names[i]] < ports[names[j]]
	})

	return names
}
