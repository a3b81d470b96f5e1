package push

import (
	"strings"
	"time"
)

// Keys are the client's web-push encryption keys.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one browser push endpoint. Unique per endpoint;
// re-subscribing refreshes the owner and keys, and delivery failures that
// report the endpoint gone delete it.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subscribe is the subscribe request body (the browser's PushSubscription
// JSON).
type Subscribe struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

func (s *Subscribe) Clean() {
	s.Endpoint = strings.TrimSpace(s.Endpoint)
}

func (s Subscribe) IsValid() bool {
	return s.Endpoint != "" && s.Keys.P256dh != "" && s.Keys.Auth != ""
}

// Unsubscribe is the unsubscribe request body.
type Unsubscribe struct {
	Endpoint string `json:"endpoint"`
}
