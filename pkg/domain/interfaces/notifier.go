package interfaces

import "context"

// Notifier delivers notifications. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, recipient, templateID string, payload map[string]string) error
}
