// internal/catalog/derive.go
package catalog

import (
	"fmt"

	"stayease/internal/models"
)

// BadgeFillingFast replaces the limited label on listing cards.
const BadgeFillingFast = "Filling Fast"

// StartingRent is the lowest rent across every offer of every building.
func StartingRent(l *models.Listing) int {
	min := 0
	for _, b := range l.Buildings {
		for _, r := range b.Rooms {
			if min == 0 || r.Rent < min {
				min = r.Rent
			}
		}
	}
	return min
}

// OverallAvailability is exhausted only when every offer is exhausted,
// otherwise limited when any offer is limited, otherwise open.
func OverallAvailability(l *models.Listing) models.Availability {
	allExhausted := true
	anyLimited := false
	for _, b := range l.Buildings {
		for _, r := range b.Rooms {
			if r.Availability != models.AvailabilityExhausted {
				allExhausted = false
			}
			if r.Availability == models.AvailabilityLimited {
				anyLimited = true
			}
		}
	}
	switch {
	case allExhausted:
		return models.AvailabilityExhausted
	case anyLimited:
		return models.AvailabilityLimited
	default:
		return models.AvailabilityOpen
	}
}

func BadgeLabel(a models.Availability) string {
	if a == models.AvailabilityLimited {
		return BadgeFillingFast
	}
	return string(a)
}

// SharingOptions lists the distinct sharing counts offered, in first-seen order.
func SharingOptions(l *models.Listing) []int {
	seen := map[int]bool{}
	var out []int
	for _, b := range l.Buildings {
		for _, r := range b.Rooms {
			if !seen[r.Sharing] {
				seen[r.Sharing] = true
				out = append(out, r.Sharing)
			}
		}
	}
	return out
}

// FirstBookableOffer returns the first non-exhausted offer of the first building.
func FirstBookableOffer(l *models.Listing) (*models.Building, models.RoomOffer, bool) {
	if len(l.Buildings) == 0 {
		return nil, models.RoomOffer{}, false
	}
	b := &l.Buildings[0]
	for _, r := range b.Rooms {
		if r.Availability != models.AvailabilityExhausted {
			return b, r, true
		}
	}
	return nil, models.RoomOffer{}, false
}

// NewDraft binds a listing, one of its buildings and one of that building's
// offers. An exhausted offer only accepts the visit path.
func NewDraft(l *models.Listing, buildingID string, sharing int, path models.BookingPath) (*models.BookingDraft, error) {
	if l == nil {
		return nil, ErrListingNotFound
	}
	if !path.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	b, ok := l.Building(buildingID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrBuildingNotFound, l.ID, buildingID)
	}
	offer, ok := b.Offer(sharing)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s sharing %d", ErrOfferNotFound, l.ID, buildingID, sharing)
	}
	if offer.Availability == models.AvailabilityExhausted && path != models.PathVisit {
		return nil, fmt.Errorf("%w: %s/%s sharing %d", ErrOfferExhausted, l.ID, buildingID, sharing)
	}
	return &models.BookingDraft{Listing: l, Building: b, Offer: offer, Path: path}, nil
}
