package fault

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category groups failure codes by the subsystem they originate from
type Category string

// Failure categories
const (
	CategorySystem  Category = "System"
	CategoryPort    Category = "Port"
	CategoryProcess Category = "Process"
	CategoryCommand Category = "Command"
	CategoryNetwork Category = "Network"
	CategoryData    Category = "Data"
)

// Severity is the fixed impact level of a failure code
type Severity int

// Severity levels
const (
	Low Severity = iota
	Medium
	High
	Critical
)

// Code identifies a failure kind from the closed taxonomy
type Code int

// Failure codes
const (
	SystemInitFailed Code = iota + 1
	SystemShutdownError
	SystemConfigInvalid
	PortUnavailable
	PortBindFailed
	PortKillFailed
	ProcessStartFailed
	ProcessCrash
	ProcessTimeout
	CommandNotFound
	CommandExecutionFailed
	CommandPermissionDenied
	NetworkUnavailable
	NetworkRequestFailed
	NetworkConnectionLost
	DataConnectionFailed
	DataValidationFailed
	DataCorruption
)

var codeNames = map[Code]string{
	SystemInitFailed:        "System.InitFailed",
	SystemShutdownError:     "System.ShutdownError",
	SystemConfigInvalid:     "System.ConfigInvalid",
	PortUnavailable:         "Port.Unavailable",
	PortBindFailed:          "Port.BindFailed",
	PortKillFailed:          "Port.KillFailed",
	ProcessStartFailed:      "Process.StartFailed",
	ProcessCrash:            "Process.Crash",
	ProcessTimeout:          "Process.Timeout",
	CommandNotFound:         "Command.NotFound",
	CommandExecutionFailed:  "Command.ExecutionFailed",
	CommandPermissionDenied: "Command.PermissionDenied",
	NetworkUnavailable:      "Network.Unavailable",
	NetworkRequestFailed:    "Network.RequestFailed",
	NetworkConnectionLost:   "Network.ConnectionLost",
	DataConnectionFailed:    "Data.ConnectionFailed",
	DataValidationFailed:    "Data.ValidationFailed",
	DataCorruption:          "Data.Corruption",
}

var severityNames = map[Severity]string{
	Low:      "low",
	Medium:   "medium",
	High:     "high",
	Critical: "critical",
}

// Codes returns every failure code in declaration order
func Codes() []Code {
	codes := make([]Code, 0, len(codeNames))
	for c := SystemInitFailed; c <= DataCorruption; c++ {
		codes = append(codes, c)
	}

	return codes
}

// String returns the dotted code name, e.g. Process.Timeout
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("Code(%d)", int(c))
}

// Valid reports whether c belongs to the taxonomy
func (c Code) Valid() bool {
	_, ok := codeNames[c]
	return ok
}

// MarshalText implements encoding.TextMarshaler
func (c Code) MarshalText() ([]byte, error) {
	name, ok := codeNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown error code %d", int(c))
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Code) UnmarshalText(text []byte) error {
	for code, name := range codeNames {
		if name == string(text) {
			*c = code
			return nil
		}
	}

	return fmt.Errorf("unknown error code %q", string(text))
}

// Severity returns the fixed severity of the code
func (c Code) Severity() Severity {
	switch c {
	case SystemInitFailed, SystemConfigInvalid, ProcessCrash, DataConnectionFailed, DataCorruption:
		return Critical
	case SystemShutdownError, PortUnavailable, PortBindFailed, ProcessStartFailed, CommandNotFound, CommandPermissionDenied, NetworkUnavailable:
		return High
	case PortKillFailed, ProcessTimeout, CommandExecutionFailed, NetworkRequestFailed, NetworkConnectionLost:
		return Medium
	case DataValidationFailed:
		return Low
	default:
		panic(fmt.Sprintf("fault: severity of unknown code %s", c))
	}
}

// Category returns the subsystem the code belongs to
func (c Code) Category() Category {
	switch c {
	case SystemInitFailed, SystemShutdownError, SystemConfigInvalid:
		return CategorySystem
	case PortUnavailable, PortBindFailed, PortKillFailed:
		return CategoryPort
	case ProcessStartFailed, ProcessCrash, ProcessTimeout:
		return CategoryProcess
	case CommandNotFound, CommandExecutionFailed, CommandPermissionDenied:
		return CategoryCommand
	case NetworkUnavailable, NetworkRequestFailed, NetworkConnectionLost:
		return CategoryNetwork
	case DataConnectionFailed, DataValidationFailed, DataCorruption:
		return CategoryData
	default:
		panic(fmt.Sprintf("fault: category of unknown code %s", c))
	}
}

// String returns the lowercase severity name
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	name, ok := severityNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown severity %d", int(s))
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	for sev, name := range severityNames {
		if name == strings.ToLower(string(text)) {
			*s = sev
			return nil
		}
	}

	return fmt.Errorf("unknown severity %q", string(text))
}

// Error is a classified failure raised at the point where the failure kind is known
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	Err     error
}

// New creates a classified error
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error around a cause
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithDetail attaches a context value and returns the same error
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}

	e.Details[key] = value

	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first classified error in the chain
func CodeOf(err error) (Code, bool) {
	var fe *Error
	if errors.As(err, &fe) && fe.Code.Valid() {
		return fe.Code, true
	}

	return 0, false
}

// Record is the immutable log entry of one classified failure
type Record struct {
	Code      Code              `json:"errorCode"`
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewRecord builds a record for code with the code's fixed severity
func NewRecord(code Code, message string, details map[string]string, now time.Time) Record {
	var copied map[string]string

	if len(details) > 0 {
		copied = make(map[string]string, len(details))
		for k, v := range details {
			copied[k] = v
		}
	}

	return Record{
		Code:      code,
		Severity:  code.Severity(),
		Message:   message,
		Details:   copied,
		Timestamp: now,
	}
}

// FromError builds a record from err, using fallback when err carries no code
func FromError(err error, fallback Code, now time.Time) Record {
	var fe *Error
	if errors.As(err, &fe) && fe.Code.Valid() {
		return NewRecord(fe.Code, err.Error(), fe.Details, now)
	}

	return NewRecord(fallback, err.Error(), nil, now)
}
