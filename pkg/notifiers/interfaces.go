// Package notifiers delivers run reports to downstream sinks (HTTP, SQS, SNS,
// Pub/Sub) for notification and archival.
package notifiers

import "context"

// Notifier sends report events to a downstream sink.
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, evt Event) error
}
