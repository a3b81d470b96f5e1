package core

import "context"

// Notification is a browser push payload.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type (
	// PushService fans a notification out to every stored subscription,
	// best-effort; it never fails the operation that triggered it.
	PushService interface {
		NotifyAll(ctx context.Context, notif Notification)
	}

	// Broadcaster pushes a named live event to all connected listeners,
	// fire-and-forget.
	Broadcaster interface {
		Broadcast(event string, payload interface{})
	}

	// Notifier is the save-side notification contract: a live broadcast
	// plus a push fan-out. Injected into services; failures are logged by
	// the implementation and swallowed.
	Notifier interface {
		Notify(ctx context.Context, event string, payload interface{}, notif Notification)
	}
)

// NopNotifier does nothing. Default for tests and the admin CLI.
type NopNotifier struct{}

var _ Notifier = (*NopNotifier)(nil)

func (NopNotifier) Notify(context.Context, string, interface{}, Notification) {}
