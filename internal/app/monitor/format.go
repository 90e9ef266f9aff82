package monitor

import (
	"fmt"
	"time"
)

// FormatMemory formats bytes into a short human-readable size
func FormatMemory(bytes uint64) string {
	const unit = 1024

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	suffixes := []string{"KB", "MB", "GB", "TB"}

	for i, suffix := range suffixes {
		value /= unit
		if value < unit || i == len(suffixes)-1 {
			if value >= 100 {
				return fmt.Sprintf("%.0f %s", value, suffix)
			}

			return fmt.Sprintf("%.1f %s", value, suffix)
		}
	}

	return ""
}

// FormatUptime formats a duration as Xh Ym, Xm Ys or Xs
func FormatUptime(d time.Duration) string {
	d = d.Round(time.Second)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
