package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/folio/internal/notification/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/messaging"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/shandysiswandi/folio/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid := msg.Header(messaging.HeaderCorrelationID); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) AuthCodeIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "AuthCodeIssuedNotification")
	defer span.End()

	body := msg.Body()

	var payload event.AuthCodeIssuedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of auth code issued", "topic", msg.Topic(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: auth code issued notification", "session_id", payload.SessionID)

	if err := h.uc.ConsumeCodeIssued(ctx, usecase.ConsumeCodeIssuedInput{
		SessionID:      payload.SessionID,
		Email:          payload.Email,
		Code:           payload.Code,
		MagicLink:      payload.MagicLink,
		IssuedAt:       time.UnixMilli(payload.IssuedAt).UTC(),
		ExpiresAt:      time.UnixMilli(payload.ExpiresAt).UTC(),
		IdempotencyKey: payload.IdempotencyKey(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume auth code issued", "session_id", payload.SessionID, "error", err)
		return err
	}

	return nil
}
