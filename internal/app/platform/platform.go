package platform

//go:generate mockgen -source=platform.go -destination=platform_mock.go -package=platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strconv"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"devboot/internal/app/errors"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// ProcessRef identifies a process found through OS inspection
type ProcessRef struct {
	PID  int    `json:"pid"`
	Name string `json:"name,omitempty"`
}

// SystemInfo describes the host the run executes on
type SystemInfo struct {
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	CPUCount    int    `json:"cpuCount"`
	MemoryTotal uint64 `json:"memoryTotal"`
	OSVersion   string `json:"osVersion,omitempty"`
	Hostname    string `json:"hostname,omitempty"`
}

// Platform provides OS-specific process, port and filesystem primitives
type Platform interface {
	Name() string
	IsPortBound(port int) bool
	ProcessOwningPort(port int) (*ProcessRef, error)
	KillProcess(ref ProcessRef, force bool) error
	RemoveDirectory(path string) error
	Shell() (string, []string)
	SystemInfo() SystemInfo
}

// runFunc executes an inspection command and returns its standard output
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// New returns the implementation for the running OS
func New(log logger.Logger) Platform {
	return newFor(goruntime.GOOS, runInspection, log)
}

func newFor(goos string, run runFunc, log logger.Logger) Platform {
	switch goos {
	case "windows":
		return newWindows(run, log)
	case "darwin":
		return newDarwin(run, log)
	default:
		return newUnix(run, log)
	}
}

// runInspection runs a read-only OS command bounded by the inspection timeout
func runInspection(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, config.InspectionTimeout)
	defer cancel()

	// #nosec G204 -- inspection commands are fixed per platform
	return exec.CommandContext(ctx, name, args...).Output()
}

// removeDirectory deletes a directory tree; a missing path is not an error
func removeDirectory(path string) error {
	if path == "" || path == "/" {
		return fmt.Errorf("%w: refusing to remove '%s'", errors.ErrInvalidConfig, path)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove '%s': %w", path, err)
	}

	return nil
}

// hostInfo collects the portable part of SystemInfo through gopsutil
func hostInfo() SystemInfo {
	info := SystemInfo{
		OS:       goruntime.GOOS,
		Arch:     goruntime.GOARCH,
		CPUCount: goruntime.NumCPU(),
	}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.CPUCount = n
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotal = vm.Total
	}

	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
		info.OSVersion = h.PlatformVersion
	}

	return info
}

// processName resolves a PID to its executable name, empty when unknown
func processName(pid int) string {
	proc, err := process.NewProcess(int32(pid)) // #nosec G115 -- PID fits in int32
	if err != nil {
		return ""
	}

	name, _ := proc.Name()

	return name
}

// parsePID converts an inspection column into a PID
func parsePID(field string) (int, bool) {
	pid, err := strconv.Atoi(field)
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}
