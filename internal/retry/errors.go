package retry

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/loomkit/loom"
)

// statusCoder is an interface for errors that carry an HTTP status code.
// Both the Anthropic and OpenAI SDK errors implement this interface.
type statusCoder interface {
	StatusCode() int
}

// IsTransient determines if an error is transient and should be retried.
// It first checks if the error implements loom.CategorizedError for explicit
// categorization. If not, it falls back to heuristic detection:
// rate limits (HTTP 429), server errors (HTTP 5xx), network timeouts,
// connection resets, DNS failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce loom.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == loom.ErrorTransient
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		if isTransientStatusCode(sc.StatusCode()) {
			return true
		}
	}

	if code := extractGoogleAPIErrorCode(err); code > 0 {
		if isTransientStatusCode(code) {
			return true
		}
	}

	return isTransientNetworkError(err)
}

func isTransientStatusCode(code int) bool {
	if code == 429 {
		return true
	}
	if code >= 500 && code < 600 {
		return true
	}
	return false
}

// extractGoogleAPIErrorCode extracts the status code from a Google API error.
// Google's googleapi.Error has a Code field instead of a StatusCode() method,
// so the code is recovered from the error message pattern.
func extractGoogleAPIErrorCode(err error) int {
	errStr := err.Error()
	if !strings.Contains(errStr, "googleapi:") {
		return 0
	}
	for _, code := range []struct {
		marker string
		value  int
	}{
		{"Error 429", 429},
		{"Error 500", 500},
		{"Error 502", 502},
		{"Error 503", 503},
		{"Error 504", 504},
	} {
		if strings.Contains(errStr, code.marker) {
			return code.value
		}
	}
	return 0
}

func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNRESET,
			syscall.ECONNREFUSED,
			syscall.ETIMEDOUT:
			return true
		}
	}

	// Message-pattern fallback for errors that lost their type through
	// string wrapping.
	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset",
		"connection refused",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"rate limit",
		"server error",
		"bad gateway",
		"gateway timeout",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
