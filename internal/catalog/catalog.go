// internal/catalog/catalog.go
package catalog

import (
	"errors"
	"fmt"

	"stayease/internal/models"
)

var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrBuildingNotFound = errors.New("building not found in listing")
	ErrOfferNotFound    = errors.New("room offer not found in building")
	ErrOfferExhausted   = errors.New("room offer is fully occupied")
	ErrInvalidListing   = errors.New("invalid listing")
	ErrInvalidPath      = errors.New("invalid booking path")
)

// Catalog is the immutable listing set, in display order.
type Catalog struct {
	listings []models.Listing
	index    map[string]int
}

// New validates listings and builds a catalog over a private copy of them.
func New(listings []models.Listing) (*Catalog, error) {
	c := &Catalog{
		listings: make([]models.Listing, len(listings)),
		index:    make(map[string]int, len(listings)),
	}
	copy(c.listings, listings)

	for i := range c.listings {
		l := &c.listings[i]
		if err := validateListing(l); err != nil {
			return nil, err
		}
		if _, dup := c.index[l.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidListing, l.ID)
		}
		c.index[l.ID] = i
	}
	return c, nil
}

func validateListing(l *models.Listing) error {
	if l.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidListing)
	}
	if !l.Category.Valid() {
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidListing, l.ID, l.Category)
	}
	if len(l.Buildings) == 0 {
		return fmt.Errorf("%w: %s has no buildings", ErrInvalidListing, l.ID)
	}

	seen := make(map[string]bool, len(l.Buildings))
	for _, b := range l.Buildings {
		if b.ID == "" || seen[b.ID] {
			return fmt.Errorf("%w: %s has empty or duplicate building id %q", ErrInvalidListing, l.ID, b.ID)
		}
		seen[b.ID] = true
		if len(b.Rooms) == 0 {
			return fmt.Errorf("%w: %s/%s has no rooms", ErrInvalidListing, l.ID, b.ID)
		}
		for _, r := range b.Rooms {
			if r.Sharing <= 0 || r.Rent <= 0 || !r.Availability.Valid() {
				return fmt.Errorf("%w: %s/%s has invalid offer %+v", ErrInvalidListing, l.ID, b.ID, r)
			}
		}
	}
	return nil
}

// All returns the listings in catalog order. Callers must not modify them.
func (c *Catalog) All() []models.Listing {
	return c.listings
}

func (c *Catalog) Len() int {
	return len(c.listings)
}

// Get returns the listing with the given id.
func (c *Catalog) Get(id string) (*models.Listing, error) {
	i, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrListingNotFound, id)
	}
	return &c.listings[i], nil
}

// ByIDs returns the listings whose ids are in the set, in catalog order.
// Unknown ids are ignored.
func (c *Catalog) ByIDs(ids map[string]bool) []models.Listing {
	out := make([]models.Listing, 0, len(ids))
	for _, l := range c.listings {
		if ids[l.ID] {
			out = append(out, l)
		}
	}
	return out
}

// InOrder maps ids back to listings, sorted by catalog position.
func (c *Catalog) InOrder(ids []string) []models.Listing {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return c.ByIDs(set)
}
