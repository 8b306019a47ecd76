// Package pubsub is the named-channel fan-out used to deliver directives to
// whichever instance currently holds a driver's connection. Delivery is
// at-most-once per subscriber.
package pubsub

import "context"

// Subscription is a live subscription to one channel. Messages is closed after
// Close or when the underlying transport gives up.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

type Bus interface {
	// Publish returns the number of subscribers that received the payload.
	// Zero means nobody is listening, which is not an error.
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
	// Subscribe returns once the subscription is confirmed by the transport.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}
