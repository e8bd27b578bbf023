package notify

import (
	"time"

	"go.uber.org/zap"

	"divemanager/internal/domain"
)

// Event is what goes over the wire to connected staff clients.
type Event struct {
	Type      string          `json:"type"`
	Booking   *domain.Booking `json:"booking,omitempty"`
	Payment   *domain.Payment `json:"payment,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingCancelled     = "booking.cancelled"
	EventPaymentReceived      = "payment.received"
)

// Service satisfies the notifier interfaces of the booking, payment,
// cancellation and sweeper modules on top of the hub. Delivery is
// best-effort; nothing in a workflow waits on it.
type Service struct {
	hub    *Hub
	logger *zap.Logger
}

func NewService(hub *Hub, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{hub: hub, logger: logger}
}

func (s *Service) NotifyBookingCreated(tenantID int64, b domain.Booking) {
	s.broadcast(tenantID, Event{Type: EventBookingCreated, Booking: &b})
}

func (s *Service) NotifyBookingStatusChanged(tenantID int64, b domain.Booking) {
	s.broadcast(tenantID, Event{Type: EventBookingStatusChanged, Booking: &b})
}

func (s *Service) NotifyBookingCancelled(tenantID int64, b domain.Booking, reason string) {
	s.broadcast(tenantID, Event{Type: EventBookingCancelled, Booking: &b, Reason: reason})
}

func (s *Service) NotifyPaymentReceived(tenantID int64, b domain.Booking, p domain.Payment) {
	s.broadcast(tenantID, Event{Type: EventPaymentReceived, Booking: &b, Payment: &p})
}

func (s *Service) broadcast(tenantID int64, event Event) {
	event.Timestamp = time.Now().UTC()
	s.hub.Broadcast(tenantID, event)
	s.logger.Debug("notification broadcast",
		zap.Int64("tenant_id", tenantID),
		zap.String("type", event.Type),
		zap.Int("online", s.hub.OnlineCount(tenantID)))
}
