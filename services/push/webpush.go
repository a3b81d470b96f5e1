// Package pushsvc sends web-push notifications to stored browser
// subscriptions.
package pushsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/push"
)

type webPushService struct {
	repo    push.Repository
	subject string
	pubKey  string
	privKey string
	log     core.Logger
}

var _ core.PushService = (*webPushService)(nil)

func NewWebPushService(repo push.Repository, conf *core.Config, log core.Logger) *webPushService {
	return &webPushService{
		repo:    repo,
		subject: conf.Push.VAPIDSubject,
		pubKey:  conf.Push.VAPIDPublicKey,
		privKey: conf.Push.VAPIDPrivateKey,
		log:     log,
	}
}

// Enabled reports whether VAPID keys are configured; without them the
// fan-out is a no-op.
func (svc *webPushService) Enabled() bool {
	return svc.pubKey != "" && svc.privKey != ""
}

// NotifyAll sends the notification to every stored subscription
// concurrently. Endpoints that report themselves gone are deleted;
// any other failure is logged and skipped.
func (svc *webPushService) NotifyAll(ctx context.Context, notif core.Notification) {
	if !svc.Enabled() {
		return
	}
	subs, err := svc.repo.QueryAllSubscriptions(ctx)
	if err != nil {
		svc.log.Error("querying push subscriptions", err)
		return
	}

	payload, err := json.Marshal(notif)
	if err != nil {
		svc.log.Error("marshaling push payload", err)
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub push.Subscription) {
			defer wg.Done()
			svc.send(ctx, sub, payload)
		}(sub)
	}
	wg.Wait()
}

func (svc *webPushService) send(ctx context.Context, sub push.Subscription, payload []byte) {
	res, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      svc.subject,
		VAPIDPublicKey:  svc.pubKey,
		VAPIDPrivateKey: svc.privKey,
		TTL:             60,
	})
	if err != nil {
		svc.log.Warn("sending push notification", err)
		return
	}
	defer res.Body.Close()

	// gone endpoints are pruned so the next fan-out skips them
	if res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone {
		if err := svc.repo.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint); err != nil {
			svc.log.Warn("removing gone push subscription", err)
		}
	}
}
