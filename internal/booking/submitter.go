// internal/booking/submitter.go
package booking

import (
	"context"
	"errors"
	"fmt"

	"stayease/internal/common/logger"
	"stayease/internal/models"
)

var ErrProcessStart = errors.New("failed to start booking process")

// SimulatedSubmitter accepts every booking. The wizard's submit delay stands
// in for the round-trip.
type SimulatedSubmitter struct {
	log logger.Logger
}

func NewSimulatedSubmitter(log logger.Logger) *SimulatedSubmitter {
	return &SimulatedSubmitter{log: log.WithFields(map[string]interface{}{"submitter": "simulated"})}
}

func (s *SimulatedSubmitter) Submit(ctx context.Context, rec models.BookingRecord) error {
	s.log.Info("booking accepted", map[string]interface{}{
		"bookingId": rec.ID,
		"listingId": rec.ListingID,
		"path":      rec.Path,
	})
	return nil
}

// ProcessStarter starts a workflow instance and returns its key.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// ProcessVariables are the variables a booking-confirmation instance starts with.
type ProcessVariables struct {
	Booking models.BookingRecord `json:"booking"`
}

// ProcessSubmitter starts a confirmation process for every booking.
type ProcessSubmitter struct {
	starter   ProcessStarter
	processID string
	log       logger.Logger
}

func NewProcessSubmitter(starter ProcessStarter, processID string, log logger.Logger) *ProcessSubmitter {
	return &ProcessSubmitter{
		starter:   starter,
		processID: processID,
		log:       log.WithFields(map[string]interface{}{"submitter": "process", "processId": processID}),
	}
}

func (s *ProcessSubmitter) Submit(ctx context.Context, rec models.BookingRecord) error {
	key, err := s.starter.StartProcess(ctx, s.processID, ProcessVariables{Booking: rec})
	if err != nil {
		s.log.Error("failed to start booking process", map[string]interface{}{
			"bookingId": rec.ID,
			"error":     err.Error(),
		})
		return fmt.Errorf("%w %s: %w", ErrProcessStart, s.processID, err)
	}

	s.log.Info("booking process started", map[string]interface{}{
		"bookingId":          rec.ID,
		"processInstanceKey": key,
	})
	return nil
}
