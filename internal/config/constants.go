package config

import "time"

// app constants
const (
	AppName        = "devboot"
	AppDescription = "bootstrap and recovery orchestrator for local development environments"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	Version = "0.4.0"
)

// file constants
const (
	FileName = "devboot.yaml"

	StateDir            = ".devboot"
	DefaultLogFile      = ".devboot/run.log"
	DefaultReportFile   = ".devboot/report.json"
	DefaultEmergencyDir = ".devboot/emergency"
	DefaultEnvFile      = ".env"
)

// retry constants
const (
	RetryAttempts          = 3
	RetryInitialDelay      = time.Second
	RetryBackoffMultiplier = 2.0
	CommandTimeout         = 5 * time.Minute
	VersionCheckTimeout    = 10 * time.Second

	// MaxErrorAttempts is how often the same failure may recur before escalation
	MaxErrorAttempts = 3
)

// port constants
const (
	MinPort        = 1
	MaxPort        = 65535
	PortRetries    = 3
	PortRetryDelay = 500 * time.Millisecond
	PortKillSettle = 300 * time.Millisecond
)

// process constants
const (
	ShutdownTimeout    = 5 * time.Second
	ProcessGracePeriod = 30 * time.Second
	PreFlightKillWait  = 2 * time.Second
	InspectionTimeout  = 5 * time.Second
)

// readiness constants
const (
	HealthTimeout  = 30 * time.Second
	HealthInterval = 500 * time.Millisecond
)

// monitor constants
const (
	MonitorSchedule   = "@every 30s"
	MonitorDebounce   = 300 * time.Millisecond
	MemoryWarnPercent = 90.0
	CPUWarnPercent    = 90.0
)

// bus constants
const (
	BusBufferSize = 256
)
