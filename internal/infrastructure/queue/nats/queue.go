package nats

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ekovalyov/docuscan/internal/infrastructure/resilience"
)

// Queue carries the two pipeline subjects: received events are consumed by a
// single worker via a queue group, updated events fan out to every process
// that maintains an aggregate view.
type Queue struct {
	conn            *nats.Conn
	receivedSubject string
	updatedSubject  string
	executor        *resilience.Executor
}

func New(url, receivedSubject, updatedSubject string) (*Queue, error) {
	return NewWithOptions(url, receivedSubject, updatedSubject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, receivedSubject, updatedSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docuscan"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:            conn,
		receivedSubject: receivedSubject,
		updatedSubject:  updatedSubject,
		executor:        options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentReceived(ctx context.Context, documentID string) error {
	return q.publish(ctx, q.receivedSubject, documentID)
}

func (q *Queue) PublishDocumentUpdated(ctx context.Context, documentID string) error {
	return q.publish(ctx, q.updatedSubject, documentID)
}

func (q *Queue) publish(ctx context.Context, subject, documentID string) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, []byte(documentID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeDocumentReceived joins the worker queue group so each received
// event is delivered to exactly one subscriber. Blocks until ctx is done.
func (q *Queue) SubscribeDocumentReceived(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.receivedSubject, "workers", func(msg *nats.Msg) {
		q.dispatch(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	return q.await(ctx, sub)
}

// SubscribeDocumentUpdated delivers every updated event to this subscriber.
// Blocks until ctx is done.
func (q *Queue) SubscribeDocumentUpdated(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.Subscribe(q.updatedSubject, func(msg *nats.Msg) {
		q.dispatch(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	return q.await(ctx, sub)
}

func (q *Queue) dispatch(ctx context.Context, msg *nats.Msg, handler func(context.Context, string) error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, string(msg.Data)); err != nil {
		log.Printf("handler error for doc=%s: %v", string(msg.Data), err)
	}
}

func (q *Queue) await(ctx context.Context, sub *nats.Subscription) error {
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
