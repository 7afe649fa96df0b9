package metrics

import (
	"context"
)

// RecordEvent records a custom event. Values must be strings, numbers or
// booleans.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if nr, ok := applicationFrom(ctx); ok {
		nr.RecordCustomEvent(eventName, attributes)
	}
}
