package platform

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "devboot/internal/app/errors"
	"devboot/internal/config/logger"
)

// windows implements Platform with netstat and taskkill
type windows struct {
	run runFunc
	log logger.Logger
}

func newWindows(run runFunc, log logger.Logger) *windows {
	return &windows{run: run, log: log}
}

func (w *windows) Name() string {
	return "windows"
}

func (w *windows) IsPortBound(port int) bool {
	ref, err := w.ProcessOwningPort(port)
	if err != nil {
		w.log.Debug().Err(err).Msgf("Port %d inspection failed, assuming available", port)
		return false
	}

	return ref != nil
}

func (w *windows) ProcessOwningPort(port int) (*ProcessRef, error) {
	out, err := w.run(context.Background(), "netstat", "-ano", "-p", "TCP")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInspectionFailed, err)
	}

	ref := parseNetstat(out, port)
	if ref != nil {
		ref.Name = processName(ref.PID)
	}

	return ref, nil
}

// KillProcess runs taskkill on the process tree, adding /F when forced
func (w *windows) KillProcess(ref ProcessRef, force bool) error {
	args := []string{"/PID", strconv.Itoa(ref.PID), "/T"}
	if force {
		args = append(args, "/F")
	}

	if _, err := w.run(context.Background(), "taskkill", args...); err != nil {
		return fmt.Errorf("%w: pid %d: %w", apperrors.ErrFailedToTerminateProcess, ref.PID, err)
	}

	return nil
}

func (w *windows) RemoveDirectory(path string) error {
	return removeDirectory(path)
}

func (w *windows) Shell() (string, []string) {
	return "cmd.exe", []string{"/C"}
}

func (w *windows) SystemInfo() SystemInfo {
	return hostInfo()
}

// parseNetstat finds the LISTENING row for port in `netstat -ano` output
func parseNetstat(out []byte, port int) *ProcessRef {
	suffix := ":" + strconv.Itoa(port)
	scanner := bufio.NewScanner(bytes.NewReader(out))

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}

		if !strings.HasSuffix(fields[1], suffix) || fields[3] != "LISTENING" {
			continue
		}

		if pid, ok := parsePID(fields[len(fields)-1]); ok {
			return &ProcessRef{PID: pid}
		}
	}

	return nil
}
