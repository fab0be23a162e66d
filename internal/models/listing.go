// internal/models/listing.go
package models

// Category is the occupancy category of a listing.
type Category string

const (
	CategoryMen      Category = "Men"
	CategoryLadies   Category = "Ladies"
	CategoryCoLiving Category = "Co-living"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryMen, CategoryLadies, CategoryCoLiving}

func (c Category) Valid() bool {
	switch c {
	case CategoryMen, CategoryLadies, CategoryCoLiving:
		return true
	}
	return false
}

// Availability of a room offer or, derived, of a whole listing.
type Availability string

const (
	AvailabilityOpen      Availability = "Available"
	AvailabilityLimited   Availability = "Few rooms left"
	AvailabilityExhausted Availability = "Fully occupied"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityOpen, AvailabilityLimited, AvailabilityExhausted:
		return true
	}
	return false
}

type RoomOffer struct {
	Sharing      int          `json:"sharing"`
	Rent         int          `json:"rent"`
	Availability Availability `json:"availability"`
}

type Building struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Rooms []RoomOffer `json:"rooms"`
}

// Listing is one property. Listings are immutable once the catalog is built.
type Listing struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Luxury      bool       `json:"luxury"`
	Verified    bool       `json:"verified"`
	Popular     bool       `json:"popular"`
	Images      []string   `json:"images"`
	Buildings   []Building `json:"buildings"`
	Amenities   []string   `json:"amenities"`
	Rules       []string   `json:"rules"`
}

// Building returns the building with the given id.
func (l *Listing) Building(id string) (*Building, bool) {
	for i := range l.Buildings {
		if l.Buildings[i].ID == id {
			return &l.Buildings[i], true
		}
	}
	return nil, false
}

// Offer returns the room offer with the given sharing count.
func (b *Building) Offer(sharing int) (RoomOffer, bool) {
	for _, r := range b.Rooms {
		if r.Sharing == sharing {
			return r, true
		}
	}
	return RoomOffer{}, false
}
