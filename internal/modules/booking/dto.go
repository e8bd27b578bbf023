package booking

import "time"

type CreateBookingRequest struct {
	MemberID     int64     `json:"member_id" binding:"required"`
	ActivityName string    `json:"activity_name" binding:"required"`
	BookingDate  time.Time `json:"booking_date" binding:"required"`
	TotalAmount  float64   `json:"total_amount" binding:"gte=0"`
	Currency     string    `json:"currency"`
}
