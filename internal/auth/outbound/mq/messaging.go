// Package mq hands issued codes to the delivery pipeline over the broker.
package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/folio/internal/auth/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/messaging"
	"github.com/shandysiswandi/folio/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCodeIssued(ctx context.Context, ev usecase.CodeIssuedEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishCodeIssued")
	defer span.End()

	body, err := json.Marshal(event.AuthCodeIssuedMessage{
		SessionID: ev.SessionID,
		Email:     ev.Email,
		Code:      ev.Code,
		MagicLink: ev.MagicLink,
		IssuedAt:  ev.IssuedAt.UnixMilli(),
		ExpiresAt: ev.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.AuthCodeIssuedTopic, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(ev.SessionID),
		Headers: []messaging.Header{{Key: messaging.HeaderCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
