package errors

import (
	"errors"
)

var (
	ErrFailedToReadConfig  = errors.New("failed to read config file")
	ErrFailedToParseConfig = errors.New("failed to parse config file")
	ErrInvalidConfig       = errors.New("invalid configuration")

	ErrInvalidRetryAttempts    = errors.New("retry max_attempts must be at least 1")
	ErrInvalidRetryBackoff     = errors.New("retry backoff must be at least 1 and delay non-negative")
	ErrInvalidPort             = errors.New("port must be between 1 and 65535")
	ErrDuplicatePort           = errors.New("port reserved for more than one service")
	ErrInvalidMinVersion       = errors.New("invalid runtime min_version")
	ErrStrategyCommandRequired = errors.New("install strategy requires executable or script")

	ErrFailedToGetWorkingDir = errors.New("failed to get working directory")
	ErrFailedToStartCommand  = errors.New("failed to start command")
	ErrFailedToCreateRequest = errors.New("failed to create request")
	ErrCommandInterrupted    = errors.New("command interrupted")
	ErrEmptyCommand          = errors.New("command has no executable")

	ErrProcessNotFound          = errors.New("process not found")
	ErrProcessNotRunning        = errors.New("process is not running")
	ErrFailedToTerminateProcess = errors.New("failed to terminate process")
	ErrInspectionFailed         = errors.New("inspection command failed")

	ErrNoPortInRange   = errors.New("no available port in range")
	ErrPortReserved    = errors.New("port already reserved by another service")
	ErrPortUnavailable = errors.New("port unavailable")

	ErrReadinessTimeout    = errors.New("readiness check timed out")
	ErrInvalidReadyPattern = errors.New("invalid ready pattern")
	ErrProcessExitedEarly  = errors.New("process exited before becoming ready")

	ErrRunInterrupted    = errors.New("run interrupted")
	ErrRunAborted        = errors.New("run aborted")
	ErrReportNotFound    = errors.New("diagnostic report not found")
	ErrConfigFileExists  = errors.New("config file already exists")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrInvalidSchedule   = errors.New("invalid monitor schedule")
	ErrVersionUnparsable = errors.New("could not parse runtime version")
)

var (
	As  = errors.As
	Is  = errors.Is
	New = errors.New
)
