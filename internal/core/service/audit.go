package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

func publishEvent(ctx context.Context, pub ports.AuditPublisher, typ domain.AuthEventType, userID, email, detail string) {
	if pub == nil {
		return
	}
	meta := ports.RequestMetaFrom(ctx)
	pub.Publish(domain.AuthEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		Email:      email,
		IP:         meta.IP,
		RequestID:  meta.RequestID,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}
