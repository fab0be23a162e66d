// internal/models/booking.go
package models

import "time"

// BookingPath is how the user wants to proceed with a room offer.
type BookingPath string

const (
	PathVisit  BookingPath = "visit"
	PathDirect BookingPath = "direct"
)

func (p BookingPath) Valid() bool {
	return p == PathVisit || p == PathDirect
}

// BookingDraft binds a listing, one of its buildings and one of that
// building's offers. Build it with catalog.NewDraft so the binding holds.
type BookingDraft struct {
	Listing  *Listing    `json:"-"`
	Building *Building   `json:"-"`
	Offer    RoomOffer   `json:"offer"`
	Path     BookingPath `json:"path"`
}

// BookingRecord is what a completed wizard hands to the submitter.
type BookingRecord struct {
	ID            string      `json:"id"`
	ListingID     string      `json:"listingId"`
	ListingName   string      `json:"listingName"`
	Location      string      `json:"location"`
	BuildingID    string      `json:"buildingId"`
	BuildingName  string      `json:"buildingName"`
	Sharing       int         `json:"sharing"`
	Rent          int         `json:"rent"`
	Path          BookingPath `json:"path"`
	Name          string      `json:"name"`
	Phone         string      `json:"phone"`
	MoveInDate    string      `json:"moveInDate"`
	Subdivision   string      `json:"subdivision"`
	VisitDay      string      `json:"visitDay,omitempty"`
	TimeWindow    string      `json:"timeWindow,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	TokenAmount   int         `json:"tokenAmount,omitempty"`
	SubmittedAt   time.Time   `json:"submittedAt"`
}
