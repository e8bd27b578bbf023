package payment

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"

	"divemanager/internal/pkg/money"
	"divemanager/internal/pkg/response"
)

const maxWebhookBodyBytes = int64(65536)

// WebhookHandler verifies and dispatches Stripe events. Only the three
// event types the booking flow cares about are handled; everything else
// is acknowledged and dropped.
type WebhookHandler struct {
	service       *Service
	signingSecret string
	logger        *zap.Logger
}

func NewWebhookHandler(service *Service, signingSecret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{service: service, signingSecret: signingSecret, logger: logger}
}

func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/stripe", h.handle)
}

func (h *WebhookHandler) handle(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Webhook payload too large")
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.signingSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = h.intentSucceeded(c, event)
	case "payment_intent.payment_failed":
		err = h.intentFailed(c, event)
	case "charge.refunded":
		err = h.chargeRefunded(c, event)
	default:
		h.logger.Debug("unhandled stripe event", zap.String("type", string(event.Type)))
	}
	if err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
		// non-2xx makes Stripe redeliver; processing is idempotent
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process event")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) intentSucceeded(c *gin.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}
	tenantID, bookingID, ok := bookingRef(pi.Metadata)
	if !ok {
		h.logger.Warn("payment intent without booking metadata", zap.String("intent_id", pi.ID))
		return nil
	}
	amount := money.FromMinorUnits(pi.Amount, strings.ToUpper(string(pi.Currency)))
	_, err := h.service.ApplyGatewayPayment(c.Request.Context(), tenantID, bookingID, pi.ID, amount)
	return err
}

func (h *WebhookHandler) intentFailed(c *gin.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}
	tenantID, bookingID, ok := bookingRef(pi.Metadata)
	if !ok {
		return nil
	}
	reason := "payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		reason = pi.LastPaymentError.Msg
	}
	return h.service.RecordGatewayFailure(c.Request.Context(), tenantID, bookingID, pi.ID, reason)
}

func (h *WebhookHandler) chargeRefunded(c *gin.Context, event stripe.Event) error {
	var ch stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
		return err
	}
	if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
		return nil
	}
	total := money.FromMinorUnits(ch.AmountRefunded, strings.ToUpper(string(ch.Currency)))
	return h.service.ApplyExternalRefund(c.Request.Context(), ch.PaymentIntent.ID, total)
}

// bookingRef extracts the tenant and booking ids stamped onto the
// payment intent metadata when it was created.
func bookingRef(meta map[string]string) (tenantID, bookingID int64, ok bool) {
	tenantID, err := strconv.ParseInt(meta["tenant_id"], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	bookingID, err = strconv.ParseInt(meta["booking_id"], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return tenantID, bookingID, true
}
