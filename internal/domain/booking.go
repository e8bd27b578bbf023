package domain

import (
	"errors"
	"time"

	"divemanager/internal/pkg/money"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCheckedIn BookingStatus = "checked_in"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
	ErrCheckInNotToday         = errors.New("check-in only allowed on the booking date")
	ErrBookingNotStarted       = errors.New("booking date has not passed yet")
)

// allowedTransitions is the full status graph. Statuses missing from the
// map (cancelled, completed, no_show) are terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCheckedIn, BookingCancelled, BookingNoShow},
	BookingCheckedIn: {BookingCompleted, BookingNoShow},
}

type Booking struct {
	ID            int64         `json:"id"`
	TenantID      int64         `json:"tenant_id"`
	BookingNumber string        `json:"booking_number"`
	MemberID      int64         `json:"member_id"`
	ActivityName  string        `json:"activity_name,omitempty"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalAmount   money.Money   `json:"total_amount"`
	AmountPaid    money.Money   `json:"amount_paid"`

	BookingDate    time.Time  `json:"booking_date"`
	PaymentDueDate *time.Time `json:"payment_due_date,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`

	ReminderSentAt    *time.Time `json:"reminder_sent_at,omitempty"`
	ReviewRequestedAt *time.Time `json:"review_requested_at,omitempty"`

	// Version is bumped on every write; conditional updates match on it.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BalanceDue is derived, never stored, so the
// amount_paid + balance_due == total_amount invariant holds by construction.
func (b Booking) BalanceDue() money.Money {
	due, err := b.TotalAmount.Sub(b.AmountPaid)
	if err != nil {
		return money.Zero(b.TotalAmount.Currency)
	}
	return due
}

func (b Booking) IsTerminal() bool {
	_, ok := allowedTransitions[b.Status]
	return !ok
}

func (b Booking) HoursUntilStart(now time.Time) float64 {
	return b.BookingDate.Sub(now).Hours()
}

// ExpiredForPayment reports whether the automatic expiration sweep may
// cancel this booking: still pending, nothing paid, deadline passed.
func (b Booking) ExpiredForPayment(now time.Time) bool {
	return b.Status == BookingPending &&
		b.PaymentStatus == PaymentUnpaid &&
		b.PaymentDueDate != nil &&
		b.PaymentDueDate.Before(now)
}

// transition returns a copy of b in the next status. Bookings are never
// mutated in place; persistence writes the returned value.
func (b Booking) transition(next BookingStatus) (Booking, error) {
	for _, s := range allowedTransitions[b.Status] {
		if s == next {
			b.Status = next
			return b, nil
		}
	}
	return Booking{}, ErrInvalidStatusTransition
}

func (b Booking) Confirm() (Booking, error) {
	return b.transition(BookingConfirmed)
}

func (b Booking) Cancel(reason string, now time.Time) (Booking, error) {
	nb, err := b.transition(BookingCancelled)
	if err != nil {
		return Booking{}, err
	}
	cancelledAt := now
	nb.CancelledAt = &cancelledAt
	nb.CancellationReason = reason
	return nb, nil
}

func (b Booking) CheckIn(now time.Time) (Booking, error) {
	nb, err := b.transition(BookingCheckedIn)
	if err != nil {
		return Booking{}, err
	}
	y1, m1, d1 := b.BookingDate.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return Booking{}, ErrCheckInNotToday
	}
	return nb, nil
}

func (b Booking) Complete() (Booking, error) {
	return b.transition(BookingCompleted)
}

func (b Booking) MarkNoShow(now time.Time) (Booking, error) {
	nb, err := b.transition(BookingNoShow)
	if err != nil {
		return Booking{}, err
	}
	if !b.BookingDate.Before(now) {
		return Booking{}, ErrBookingNotStarted
	}
	return nb, nil
}

// ApplyPayment credits a completed charge against the booking and
// advances payment_status. Status confirmation on first payment is the
// booking service's call, not done here.
func (b Booking) ApplyPayment(amount money.Money) (Booking, error) {
	paid, err := b.AmountPaid.Add(amount)
	if err != nil {
		return Booking{}, err
	}
	b.AmountPaid = paid
	if b.BalanceDue().IsPositive() {
		b.PaymentStatus = PaymentPartial
	} else {
		b.PaymentStatus = PaymentPaid
	}
	return b, nil
}

// ApplyRefund debits a refund. payment_status becomes refunded only once
// nothing paid remains; otherwise it is left unchanged.
func (b Booking) ApplyRefund(amount money.Money) (Booking, error) {
	paid, err := b.AmountPaid.Sub(amount)
	if err != nil {
		return Booking{}, err
	}
	b.AmountPaid = paid
	if !b.AmountPaid.IsPositive() {
		b.PaymentStatus = PaymentRefunded
	}
	return b, nil
}
