package messaging

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MessageHandler processes one inbound message from a subscribed topic.
// Returning an error signals a persistence failure; unusable payloads are the
// handler's concern and must not surface here.
type MessageHandler interface {
	HandleMessage(ctx context.Context, source string, payload []byte) error
}

// Subscription binds an inbound topic to the source tag applied to records
// normalized from it.
type Subscription struct {
	Topic  string
	Source string
}

// Listener consumes inbound event topics, one goroutine per subscription, so
// a slow topic never blocks the others.
type Listener struct {
	client        *redis.Client
	handler       MessageHandler
	subscriptions []Subscription
	logger        *zap.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pubsubs []*redis.PubSub
	mu      sync.Mutex
	running bool
}

// NewListener builds a listener for the given subscriptions.
func NewListener(client *redis.Client, handler MessageHandler, subscriptions []Subscription, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		client:        client,
		handler:       handler,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// Start launches one consuming goroutine per subscription.
func (l *Listener) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	for _, sub := range l.subscriptions {
		pubsub := l.client.Subscribe(ctx, sub.Topic)
		l.pubsubs = append(l.pubsubs, pubsub)

		l.wg.Add(1)
		go l.consume(ctx, sub, pubsub)
	}
	l.mu.Unlock()

	l.logger.Info("ingestion listeners started", zap.Int("subscriptions", len(l.subscriptions)))
}

func (l *Listener) consume(ctx context.Context, sub Subscription, pubsub *redis.PubSub) {
	defer l.wg.Done()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := l.handler.HandleMessage(ctx, sub.Source, []byte(msg.Payload)); err != nil {
				// Persistence failed; the transport owns redelivery policy.
				l.logger.Error("inbound event processing failed",
					zap.String("topic", sub.Topic),
					zap.String("source", sub.Source),
					zap.Error(err))
			}
		}
	}
}

// Shutdown stops all subscriptions and waits for in-flight handlers.
func (l *Listener) Shutdown() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	cancel := l.cancel
	pubsubs := l.pubsubs
	l.pubsubs = nil
	l.mu.Unlock()

	for _, pubsub := range pubsubs {
		_ = pubsub.Close()
	}
	if cancel != nil {
		cancel()
	}
	l.wg.Wait()

	l.logger.Info("ingestion listeners stopped")
	return nil
}
