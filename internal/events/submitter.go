// internal/events/submitter.go
package events

import (
	"context"

	"stayease/internal/booking"
	"stayease/internal/common/logger"
	"stayease/internal/models"
)

// BookingPublisher publishes accepted bookings.
type BookingPublisher interface {
	PublishBooking(ctx context.Context, rec models.BookingRecord) error
}

// Submitter forwards bookings to next and publishes each accepted one.
// A failed publish is logged and does not fail the booking.
type Submitter struct {
	next booking.Submitter
	pub  BookingPublisher
	log  logger.Logger
}

func NewSubmitter(next booking.Submitter, pub BookingPublisher, log logger.Logger) *Submitter {
	return &Submitter{
		next: next,
		pub:  pub,
		log:  log.WithFields(map[string]interface{}{"component": "booking-events"}),
	}
}

func (s *Submitter) Submit(ctx context.Context, rec models.BookingRecord) error {
	if err := s.next.Submit(ctx, rec); err != nil {
		return err
	}
	if err := s.pub.PublishBooking(ctx, rec); err != nil {
		s.log.Warn("failed to publish booking event", map[string]interface{}{
			"bookingId": rec.ID,
			"error":     err.Error(),
		})
	}
	return nil
}
