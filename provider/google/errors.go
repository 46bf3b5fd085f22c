package google

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/genai"

	"github.com/loomkit/loom"
)

// wrapError categorizes a GenAI SDK error so retry layers can decide
// whether to try again. The SDK does not expose response headers, so no
// Retry-After hint is available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.Code
	msg := err.Error()

	switch {
	case code == http.StatusTooManyRequests || (code >= 500 && code < 600):
		return loom.NewTransientError(msg, code, err)
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
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return "blocked"
	}
	if code := loom.StatusCodeOf(err); code != 0 {
		return strconv.Itoa(code)
	}
	return "upstream"
}

// BlockedError indicates the request was rejected by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}
