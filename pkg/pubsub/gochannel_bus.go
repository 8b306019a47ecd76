package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// GoChannelBus is an in-process Bus on top of watermill's GoChannel. It only
// reaches sessions held by this process, which is all single-instance mode needs.
type GoChannelBus struct {
	pubSub *gochannel.GoChannel

	mu          sync.Mutex
	subscribers map[string]int
}

func NewGoChannelBus(logger watermill.LoggerAdapter) *GoChannelBus {
	return &GoChannelBus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: subscriptionBuffer},
			logger,
		),
		subscribers: make(map[string]int),
	}
}

func (b *GoChannelBus) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	b.mu.Lock()
	receivers := b.subscribers[channel]
	b.mu.Unlock()

	if err := b.pubSub.Publish(channel, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		return 0, fmt.Errorf("publish to %s: %w", channel, err)
	}
	return int64(receivers), nil
}

func (b *GoChannelBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	messages, err := b.pubSub.Subscribe(subCtx, channel)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	b.mu.Lock()
	b.subscribers[channel]++
	b.mu.Unlock()

	sub := &goChannelSubscription{
		bus:     b,
		channel: channel,
		cancel:  cancel,
		out:     make(chan []byte, subscriptionBuffer),
	}
	go sub.forward(subCtx, messages)
	return sub, nil
}

func (b *GoChannelBus) Close() error {
	return b.pubSub.Close()
}

func (b *GoChannelBus) release(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[channel] <= 1 {
		delete(b.subscribers, channel)
		return
	}
	b.subscribers[channel]--
}

type goChannelSubscription struct {
	bus       *GoChannelBus
	channel   string
	cancel    context.CancelFunc
	out       chan []byte
	closeOnce sync.Once
}

func (s *goChannelSubscription) forward(ctx context.Context, messages <-chan *message.Message) {
	defer close(s.out)
	defer s.Close()
	for msg := range messages {
		select {
		case s.out <- msg.Payload:
			msg.Ack()
		case <-ctx.Done():
			msg.Nack()
			return
		}
	}
}

func (s *goChannelSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *goChannelSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.bus.release(s.channel)
	})
	return nil
}
