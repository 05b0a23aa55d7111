package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/goroutine"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/messaging"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/shandysiswandi/folio/internal/shared/event"
)

const defaultConsumerConcurrency = 10

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	concurrency := cfg.GetInt("modules.notification.concurrency")
	if concurrency <= 0 {
		concurrency = defaultConsumerConcurrency
	}

	var consumers = []struct {
		name              string
		topic             string // destination where publisher sent message
		natsConsumerName  string // for nats
		kafkaConsumerName string // for kafka
		handler           messaging.Handler
	}{
		{
			name:              event.AuthCodeIssuedConsumerNotification,
			topic:             event.AuthCodeIssuedTopic,
			natsConsumerName:  event.AuthCodeIssuedConsumerNotification,
			kafkaConsumerName: event.AuthCodeIssuedConsumerNotification,
			handler:           mqHandler.AuthCodeIssuedNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		err := routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithQueueGroup(consumer.natsConsumerName),
				messaging.WithGroup(consumer.kafkaConsumerName),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to start consumer", "consumer", consumer.name, "error", err)
		}
	}
}
