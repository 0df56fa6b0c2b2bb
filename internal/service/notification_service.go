package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/workorder-engine/internal/config"
	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/events"
)

// Notifier dispatches a notification to a set of recipients. Fire-and-forget
// from the engine's perspective: callers catch and report failures instead of
// failing the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, subject string, recipients []domain.User, details map[string]any) error
}

// NotificationService emits notifications, both for domain events published on
// the dispatcher and for direct Notify calls from the sweeps.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// Notify implements Notifier.
func (n *NotificationService) Notify(ctx context.Context, subject string, recipients []domain.User, details map[string]any) error {
	emails := make([]string, 0, len(recipients))
	for _, user := range recipients {
		emails = append(emails, user.Email)
	}
	n.logger.Info("notification",
		zap.String("subject", subject),
		zap.Strings("recipients", emails),
		zap.Any("details", details))
	n.sendEmailStub(ctx, subject)
	n.sendWebhookStub(ctx, subject)
	return nil
}

// RegisterHandlers subscribes to workflow events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent("TicketCreated"))
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent("TicketStatusChanged"))
	n.dispatcher.Subscribe(events.EventApprovalRequested, n.handleEvent("ApprovalRequested"))
	n.dispatcher.Subscribe(events.EventApprovalDecided, n.handleEvent("ApprovalDecided"))
	n.dispatcher.Subscribe(events.EventEmergencyContained, n.handleEvent("EmergencyContained"))
	n.dispatcher.Subscribe(events.EventEmergencyResolved, n.handleEvent("EmergencyResolved"))
	n.dispatcher.Subscribe(events.EventPMTicketGenerated, n.handleEvent("PMTicketGenerated"))
}

func (n *NotificationService) handleEvent(name string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("ticket_id", event.TicketID),
			zap.String("tenant_id", event.TenantID),
			zap.Any("payload", event.Payload))
		n.sendWebhookStub(ctx, name)
		return nil
	}
}

func (n *NotificationService) sendEmailStub(ctx context.Context, subject string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject", subject))
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, subject string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject", subject))
}
