// internal/app/views.go
package app

import (
	"stayease/internal/booking"
	"stayease/internal/catalog"
	"stayease/internal/filter"
	"stayease/internal/models"
	"stayease/internal/session"
)

// ListingSummary is the card projection of a listing.
type ListingSummary struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Location     string              `json:"location"`
	Category     models.Category     `json:"category"`
	Luxury       bool                `json:"luxury"`
	Verified     bool                `json:"verified"`
	Popular      bool                `json:"popular"`
	Image        string              `json:"image,omitempty"`
	StartingRent int                 `json:"startingRent"`
	Availability models.Availability `json:"availability"`
	Badge        string              `json:"badge"`
	Sharing      []int               `json:"sharing"`
	Saved        bool                `json:"saved"`
}

func Summarize(l *models.Listing, saved bool) ListingSummary {
	avail := catalog.OverallAvailability(l)
	s := ListingSummary{
		ID:           l.ID,
		Name:         l.Name,
		Location:     l.Location,
		Category:     l.Category,
		Luxury:       l.Luxury,
		Verified:     l.Verified,
		Popular:      l.Popular,
		StartingRent: catalog.StartingRent(l),
		Availability: avail,
		Badge:        catalog.BadgeLabel(avail),
		Sharing:      catalog.SharingOptions(l),
		Saved:        saved,
	}
	if len(l.Images) > 0 {
		s.Image = l.Images[0]
	}
	return s
}

// ListingDetails is the details-screen projection.
type ListingDetails struct {
	models.Listing
	StartingRent int                 `json:"startingRent"`
	Availability models.Availability `json:"availability"`
	Saved        bool                `json:"saved"`
}

// DraftView describes the booking draft without the listing graph.
type DraftView struct {
	ListingID    string              `json:"listingId"`
	BuildingID   string              `json:"buildingId"`
	Sharing      int                 `json:"sharing"`
	Rent         int                 `json:"rent"`
	Availability models.Availability `json:"availability"`
	Path         models.BookingPath  `json:"path"`
}

func newDraftView(d *models.BookingDraft) *DraftView {
	if d == nil {
		return nil
	}
	return &DraftView{
		ListingID:    d.Listing.ID,
		BuildingID:   d.Building.ID,
		Sharing:      d.Offer.Sharing,
		Rent:         d.Offer.Rent,
		Availability: d.Offer.Availability,
		Path:         d.Path,
	}
}

// Snapshot is a read-only projection of the whole application state.
type Snapshot struct {
	View               models.View        `json:"view"`
	SelectedListingID  string             `json:"selectedListingId,omitempty"`
	Draft              *DraftView         `json:"draft,omitempty"`
	Outcome            models.BookingPath `json:"outcome,omitempty"`
	Authenticated      bool               `json:"authenticated"`
	AuthMode           session.Mode       `json:"authMode"`
	SigningIn          bool               `json:"signingIn"`
	WishlistProcessing bool               `json:"wishlistProcessing"`
	Wishlist           []string           `json:"wishlist"`
	Filters            filter.Criteria    `json:"filters"`
	CatalogLoading     bool               `json:"catalogLoading"`
	Booking            *booking.View      `json:"booking,omitempty"`
	ReferralCopied     bool               `json:"referralCopied"`
}
