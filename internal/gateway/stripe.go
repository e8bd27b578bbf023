package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"

	"divemanager/internal/pkg/money"
)

// Stripe issues refunds against the payment intent that originally
// charged the booking.
type Stripe struct{}

func NewStripe(apiKey string) *Stripe {
	stripe.Key = apiKey
	return &Stripe{}
}

// Refund returns the gateway refund id on success.
func (g *Stripe) Refund(ctx context.Context, chargeRef string, amount money.Money) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeRef),
		Amount:        stripe.Int64(amount.MinorUnits()),
		Reason:        stripe.String("requested_by_customer"),
	}
	params.Context = ctx

	res, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund for %s: %w", chargeRef, err)
	}
	return res.ID, nil
}
