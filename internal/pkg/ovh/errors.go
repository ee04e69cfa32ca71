package ovh

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned before any request when the application key,
// secret or consumer key is missing.
var ErrNotConfigured = errors.New("ovh api credentials are not configured")

// APIError 供应商返回的非 2xx 响应
type APIError struct {
	StatusCode int    `json:"httpCode"`
	Class      string `json:"class"`
	Message    string `json:"message"`
	QueryID    string `json:"queryId"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("ovh api error %d", e.StatusCode)
	if e.Class != "" {
		msg += " " + e.Class
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.QueryID != "" {
		msg += " (QueryID: " + e.QueryID + ")"
	}
	return msg
}

// IsNotFound reports whether err is a vendor 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
