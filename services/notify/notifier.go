// Package notifysvc combines the live feed broadcast and the web-push
// fan-out behind the save-side notification contract.
package notifysvc

import (
	"context"

	"github.com/bataanhss/websystem/core"
)

type notifier struct {
	broadcaster core.Broadcaster
	pushSvc     core.PushService
}

var _ core.Notifier = (*notifier)(nil)

func NewNotifier(broadcaster core.Broadcaster, pushSvc core.PushService) *notifier {
	return &notifier{broadcaster: broadcaster, pushSvc: pushSvc}
}

// Notify broadcasts the event to the live feed and, when the notification
// has a title, pushes it to subscribed browsers. Both are best-effort; the
// triggering operation never fails on their account.
func (n *notifier) Notify(ctx context.Context, event string, payload interface{}, notif core.Notification) {
	if n.broadcaster != nil {
		n.broadcaster.Broadcast(event, payload)
	}
	if n.pushSvc != nil && notif.Title != "" {
		go n.pushSvc.NotifyAll(context.Background(), notif)
	}
}
