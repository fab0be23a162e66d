// internal/workers/booking/notify-booking/models.go
package notifybooking

import "stayease/internal/models"

// Input is the process variables of a booking-confirmation instance.
type Input struct {
	Booking models.BookingRecord `json:"booking"`
	Email   string               `json:"email,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "disabled"
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
