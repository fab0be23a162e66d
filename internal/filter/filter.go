// internal/filter/filter.go
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stayease/internal/models"
)

var ErrInvalidCriteria = errors.New("invalid filter criteria")

// GenderAll disables the category filter.
const GenderAll = "all"

// Criteria is the conjunction of filters applied to the catalog.
// Sharing 0 means no sharing filter.
type Criteria struct {
	Gender  string `json:"gender"`
	Sharing int    `json:"sharing"`
	Search  string `json:"search"`
}

// Default matches every listing.
func Default() Criteria {
	return Criteria{Gender: GenderAll}
}

func (c Criteria) IsDefault() bool {
	return (c.Gender == GenderAll || c.Gender == "") && c.Sharing == 0 && c.Search == ""
}

// Validate checks gender and sharing values.
func (c Criteria) Validate() error {
	if c.Gender != "" && c.Gender != GenderAll && !models.Category(c.Gender).Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidCriteria, c.Gender)
	}
	if c.Sharing < 0 {
		return fmt.Errorf("%w: sharing must be positive, got %d", ErrInvalidCriteria, c.Sharing)
	}
	return nil
}

// ParseCriteria parses transport values. Empty gender and sharing mean "all"
// and "none".
func ParseCriteria(gender, sharing, search string) (Criteria, error) {
	c := Default()
	if g := strings.TrimSpace(gender); g != "" {
		c.Gender = g
	}
	if s := strings.TrimSpace(sharing); s != "" && s != "none" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return Criteria{}, fmt.Errorf("%w: sharing must be a positive integer, got %q", ErrInvalidCriteria, sharing)
		}
		c.Sharing = n
	}
	c.Search = search
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Apply returns the listings passing every filter, in input order.
func Apply(listings []models.Listing, c Criteria) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	needle := strings.ToLower(c.Search)
	for i := range listings {
		l := &listings[i]
		if Matches(l, c.Gender, c.Sharing, needle) {
			out = append(out, *l)
		}
	}
	return out
}

// Matches reports whether l passes all three filters. needle must already be
// lower-cased.
func Matches(l *models.Listing, gender string, sharing int, needle string) bool {
	if gender != "" && gender != GenderAll && string(l.Category) != gender {
		return false
	}
	if sharing > 0 && !offersSharing(l, sharing) {
		return false
	}
	if needle != "" &&
		!strings.Contains(strings.ToLower(l.Name), needle) &&
		!strings.Contains(strings.ToLower(l.Location), needle) {
		return false
	}
	return true
}

func offersSharing(l *models.Listing, n int) bool {
	for _, b := range l.Buildings {
		for _, r := range b.Rooms {
			if r.Sharing == n {
				return true
			}
		}
	}
	return false
}
