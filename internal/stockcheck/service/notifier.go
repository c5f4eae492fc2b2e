package service

import (
	"context"
	"sync"
	"time"

	"github.com/medflow/stockcheck-backend/pkg/logger"
)

const defaultNotifyTimeout = 5 * time.Second

// notifier delivers events after commit without holding up the caller
type notifier struct {
	sink    EventSink
	timeout time.Duration
	logger  *logger.Logger
	wg      sync.WaitGroup
}

func newNotifier(sink EventSink, timeout time.Duration, log *logger.Logger) *notifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &notifier{sink: sink, timeout: timeout, logger: log}
}

// send runs fn in the background, detached from the request context
func (n *notifier) send(ctx context.Context, what string, fn func(ctx context.Context, sink EventSink) error) {
	if n.sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := fn(ctx, n.sink); err != nil {
			n.logger.Warn().Err(err).Str("event", what).Msg("failed to deliver event")
		}
	}()
}

// wait blocks until every pending delivery has finished
func (n *notifier) wait() {
	n.wg.Wait()
}
