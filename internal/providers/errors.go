package providers

import (
	"net/http"
	"strings"
)

// statusPatterns maps status codes found in SDK error text, checked in order.
var statusPatterns = []struct {
	code   string
	status int
}{
	{"429", http.StatusTooManyRequests},
	{"500", http.StatusInternalServerError},
	{"502", http.StatusBadGateway},
	{"503", http.StatusServiceUnavailable},
	{"504", http.StatusGatewayTimeout},
	{"401", http.StatusUnauthorized},
	{"403", http.StatusForbidden},
	{"400", http.StatusBadRequest},
	{"402", http.StatusPaymentRequired},
}

// extractErrorMetadata pulls an HTTP status and a Retry-After value out of an
// SDK error message.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	errStr := err.Error()

	var httpStatus int
	for _, p := range statusPatterns {
		if strings.Contains(errStr, p.code) {
			httpStatus = p.status
			break
		}
	}

	var retryAfter string
	lower := strings.ToLower(errStr)
	for _, marker := range []string{"retry-after", "retry after"} {
		if idx := strings.Index(lower, marker); idx != -1 {
			rest := strings.TrimLeft(errStr[idx+len(marker):], ": ")
			if parts := strings.Fields(rest); len(parts) > 0 {
				retryAfter = parts[0]
			}
			break
		}
	}
	return httpStatus, retryAfter
}
