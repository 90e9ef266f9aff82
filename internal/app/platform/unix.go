package platform

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	apperrors "devboot/internal/app/errors"
	"devboot/internal/config/logger"
)

type connectionsFunc func() ([]gopsnet.ConnectionStat, error)
type signalFunc func(pid int, force bool) error

// unix implements Platform for Linux and BSD using lsof with a gopsutil fallback
type unix struct {
	run         runFunc
	connections connectionsFunc
	signal      signalFunc
	log         logger.Logger
}

func newUnix(run runFunc, log logger.Logger) *unix {
	return &unix{
		run:         run,
		connections: tcpConnections,
		signal:      signalProcess,
		log:         log,
	}
}

func (u *unix) Name() string {
	return "unix"
}

// IsPortBound reports whether a listener owns the port; inspection failures report false
func (u *unix) IsPortBound(port int) bool {
	ref, err := u.ProcessOwningPort(port)
	if err != nil {
		u.log.Debug().Err(err).Msgf("Port %d inspection failed, assuming available", port)
		return false
	}

	return ref != nil
}

// ProcessOwningPort returns the listening process for port, or nil when there is none
func (u *unix) ProcessOwningPort(port int) (*ProcessRef, error) {
	out, err := u.run(context.Background(), "lsof", "-nP", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN")
	if err == nil {
		return parseLsof(out, port), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(bytes.TrimSpace(out)) == 0 {
		// lsof exits 1 when nothing matches
		return nil, nil
	}

	u.log.Debug().Err(err).Msg("lsof unavailable, falling back to connection table")

	return u.fromConnections(port)
}

// KillProcess signals the process, SIGTERM when graceful and SIGKILL when forced
func (u *unix) KillProcess(ref ProcessRef, force bool) error {
	if err := u.signal(ref.PID, force); err != nil {
		return fmt.Errorf("%w: pid %d: %w", apperrors.ErrFailedToTerminateProcess, ref.PID, err)
	}

	return nil
}

func (u *unix) RemoveDirectory(path string) error {
	return removeDirectory(path)
}

func (u *unix) Shell() (string, []string) {
	return "/bin/sh", []string{"-c"}
}

func (u *unix) SystemInfo() SystemInfo {
	return hostInfo()
}

func (u *unix) fromConnections(port int) (*ProcessRef, error) {
	conns, err := u.connections()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInspectionFailed, err)
	}

	for _, c := range conns {
		if int(c.Laddr.Port) != port || c.Status != "LISTEN" {
			continue
		}

		pid := int(c.Pid)

		return &ProcessRef{PID: pid, Name: processName(pid)}, nil
	}

	return nil, nil
}

// parseLsof extracts the first listener from `lsof -nP -iTCP:<port> -sTCP:LISTEN` output
func parseLsof(out []byte, port int) *ProcessRef {
	suffix := ":" + strconv.Itoa(port)
	scanner := bufio.NewScanner(bytes.NewReader(out))

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 9 || fields[0] == "COMMAND" {
			continue
		}

		name := fields[len(fields)-1]
		if name == "(LISTEN)" && len(fields) >= 10 {
			name = fields[len(fields)-2]
		}

		if !strings.HasSuffix(name, suffix) {
			continue
		}

		pid, ok := parsePID(fields[1])
		if !ok {
			continue
		}

		return &ProcessRef{PID: pid, Name: fields[0]}
	}

	return nil
}

func tcpConnections() ([]gopsnet.ConnectionStat, error) {
	return gopsnet.Connections("tcp")
}

func signalProcess(pid int, force bool) error {
	proc, err := process.NewProcess(int32(pid)) // #nosec G115 -- PID fits in int32
	if err != nil {
		return err
	}

	if force {
		return proc.Kill()
	}

	return proc.Terminate()
}
