package events

import (
	"context"

	"github.com/cockroachdb/errors"

	"incidentops/src/broker"
	"incidentops/src/config"
	"incidentops/src/logger"
)

// New builds the emitter selected by cfg.Events.Sink. The returned close
// func releases any broker or client it opened.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Emitter, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Events.Sink {
	case config.EventsNone, "":
		return NewMultiEmitter(), noop, nil

	case config.EventsLog:
		return NewLogEmitter(log), noop, nil

	case config.EventsMemory:
		b := broker.NewInMemoryBroker()
		return NewBrokerEmitter(ctx, b, log), b.Close, nil

	case config.EventsRedpanda:
		b, err := broker.NewRedpandaBroker(cfg.Events.RedpandaBrokers, log)
		if err != nil {
			return nil, noop, errors.Wrap(err, "redpanda event sink")
		}
		return NewBrokerEmitter(ctx, b, log), b.Close, nil

	case config.EventsPubSub:
		e, err := NewPubSubEmitter(ctx, cfg.Events.PubSubProject, cfg.Events.PubSubTopic, log)
		if err != nil {
			return nil, noop, err
		}
		return e, e.Close, nil
	}

	return nil, noop, errors.Newf("unknown events sink %q", cfg.Events.Sink)
}
