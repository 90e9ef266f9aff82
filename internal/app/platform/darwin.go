package platform

import (
	"context"
	"strings"

	"devboot/internal/config/logger"
)

// darwin is the unix implementation plus a macOS product version lookup
type darwin struct {
	*unix
}

func newDarwin(run runFunc, log logger.Logger) *darwin {
	return &darwin{unix: newUnix(run, log)}
}

func (d *darwin) Name() string {
	return "darwin"
}

func (d *darwin) SystemInfo() SystemInfo {
	info := d.unix.SystemInfo()

	out, err := d.run(context.Background(), "sw_vers", "-productVersion")
	if err != nil {
		d.log.Debug().Err(err).Msg("Failed to read macOS product version")
		return info
	}

	if v := strings.TrimSpace(string(out)); v != "" {
		info.OSVersion = v
	}

	return info
}
