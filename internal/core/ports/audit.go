package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// AuditPublisher accepts audit events. Publish must not block the caller.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

type requestMetaKey struct{}

// RequestMeta is the transport metadata services attach to audit events.
type RequestMeta struct {
	IP        string
	RequestID string
}

// WithRequestMeta returns a copy of ctx carrying meta.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the metadata stored by WithRequestMeta, or the zero value.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
