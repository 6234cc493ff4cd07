package ptohandler

import (
	"context"

	"ptoinfo/internal/domain/auth"
	"ptoinfo/internal/domain/notifications"
	"ptoinfo/internal/domain/pto"
	"ptoinfo/internal/platform/metrics"
)

// NotificationSink stores user notifications.
type NotificationSink interface {
	Create(ctx context.Context, tenantID, userID, ntype, title, body string) error
}

// userNotifier delivers controller toasts as notifications of one user.
type userNotifier struct {
	sink     NotificationSink
	tenantID string
	userID   string
	metrics  *metrics.Collector
}

func (n userNotifier) Notify(ctx context.Context, toast pto.Toast) error {
	if err := n.sink.Create(ctx, n.tenantID, n.userID, notifications.TypeToast, toast.Title, toast.Message); err != nil {
		return err
	}
	if n.metrics != nil {
		n.metrics.RecordToast()
	}
	return nil
}

func (h *Handler) notifierFor(user auth.UserContext) pto.Notifier {
	if h.Notify == nil {
		return nil
	}
	return userNotifier{sink: h.Notify, tenantID: user.TenantID, userID: user.UserID, metrics: h.Metrics}
}
