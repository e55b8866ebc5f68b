package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DocumentExtractor is the external text-extraction service used for office
// and PDF binaries. Behavior is opaque; callers always keep a fallback path.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, filename string, content []byte) (string, error)
}

// ServiceError carries the upstream status of a failed extraction call so the
// retry policy can classify it.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("extraction service status %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// IsTransient classifies errors worth a single retry: gateway failures,
// service-unavailable responses, and timeout-class signals. Validation errors
// and everything else go straight to the fallback path.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		if se.Status == 502 || se.Status == 503 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "temporarily unavailable") ||
		strings.Contains(msg, "timeout") ||
		errors.Is(err, context.DeadlineExceeded)
}
