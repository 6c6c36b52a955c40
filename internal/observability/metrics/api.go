// Package metrics holds standardised metric emission helpers.
package metrics

import (
	"time"

	obserrors "github.com/target/foodorder-ui/internal/observability/errors"
	"github.com/target/foodorder-ui/internal/observability/statsd"
)

// Outcome tag values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// APICall describes one completed request to the ordering API.
type APICall struct {
	Operation string
	Method    string
	Status    int
	Duration  time.Duration
	Err       error
}

// EmitAPICall records api.request (count) and api.duration (timing).
func EmitAPICall(sink statsd.Sink, in APICall) {
	if sink == nil {
		return
	}

	tags := statsd.Tags{
		"operation": OperationTag(in.Operation),
		"method":    in.Method,
		"outcome":   OutcomeSuccess,
	}
	if in.Err != nil {
		tags["outcome"] = OutcomeError
		tags["error_class"] = obserrors.Classify(in.Err)
	}
	if in.Status > 0 {
		tags["status_class"] = statusClass(in.Status)
	}

	sink.Count("api.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("api.duration", in.Duration, tags)
	}
}

// LoginEvent records auth.login with the given outcome.
func LoginEvent(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("auth.login", 1, statsd.Tags{"outcome": outcome})
}

// OperationTag turns "Failed to fetch user" into "fetch_user".
func OperationTag(op string) string {
	b := make([]byte, 0, len(op))
	prefix := "Failed to "
	if len(op) > len(prefix) && op[:len(prefix)] == prefix {
		op = op[len(prefix):]
	}
	for i := 0; i < len(op); i++ {
		c := op[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c+('a'-'A'))
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b = append(b, c)
		default:
			if len(b) > 0 && b[len(b)-1] != '_' {
				b = append(b, '_')
			}
		}
	}
	for len(b) > 0 && b[len(b)-1] == '_' {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "unknown"
	}
	return string(b)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
