package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds how long a request may run. The matching engine itself has
// no internal timeouts; this is the calling layer's bound. Built on
// http.TimeoutHandler, which cancels the request context and replies 503
// with the given body once the budget is spent, and discards any late
// writes from the handler.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	const body = `{"success":false,"error":"request timeout"}`
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, body)
	}
}
