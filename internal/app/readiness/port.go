package readiness

import (
	"net/url"
	"strconv"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
	portHTTP    = 80
	portHTTPS   = 443
)

// PortFromURL extracts the port of an HTTP URL (e.g., "http://localhost:8080/health" → 8080), 0 if unknown
func PortFromURL(rawURL string) int {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}

	if port := parsed.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return 0
		}

		return n
	}

	switch parsed.Scheme {
	case schemeHTTP:
		return portHTTP
	case schemeHTTPS:
		return portHTTPS
	default:
		return 0
	}
}
