package anthropic

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/loomkit/loom"
)

// wrapError categorizes an Anthropic SDK error so retry layers can decide
// whether to try again, and carries the Retry-After hint when present.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.StatusCode
	msg := err.Error()

	switch {
	case code == http.StatusTooManyRequests || (code >= 500 && code < 600):
		e := loom.NewTransientError(msg, code, err)
		e.RetryDelay = parseRetryAfter(apiErr.Response)
		return e
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return loom.NewPermanentError(msg, code, err)
	case code == http.StatusBadRequest || code == http.StatusNotFound || code == http.StatusUnprocessableEntity:
		return loom.NewUserInputError(msg, code, err)
	default:
		return loom.NewPermanentError(msg, code, err)
	}
}

// errorCode renders a short machine-readable code for in-band stream errors.
func errorCode(err error) string {
	if code := loom.StatusCodeOf(err); code != 0 {
		return strconv.Itoa(code)
	}
	return "upstream"
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
