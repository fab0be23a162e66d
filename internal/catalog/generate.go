// internal/catalog/generate.go
package catalog

import (
	"fmt"

	"stayease/internal/models"
)

// ListingsPerCategory is the size of each generated series.
const ListingsPerCategory = 11

var locations = []string{
	"JP Nagar 5th Phase",
	"JP Nagar 1st Phase",
	"HSR Layout Sector 2",
	"HSR Layout Sector 7",
	"Koramangala 4th Block",
	"Koramangala 1st Block",
	"Indiranagar 100ft Rd",
	"Whitefield ITPL Main Rd",
	"Electronic City Phase 1",
	"BTM Layout 2nd Stage",
}

type roomTemplate struct {
	sharing  int
	baseRent int
	avail    func(i int) models.Availability
}

func always(a models.Availability) func(int) models.Availability {
	return func(int) models.Availability { return a }
}

func exhaustedEvery(n int) func(int) models.Availability {
	return func(i int) models.Availability {
		if i%n == 0 {
			return models.AvailabilityExhausted
		}
		return models.AvailabilityOpen
	}
}

// series describes how one category's listings are generated from their index.
type series struct {
	prefix       string
	category     models.Category
	evenName     string
	oddName      string
	locationSkew int
	luxury       func(i int) bool
	verified     func(i int) bool
	popular      func(i int) bool
	buildingName string
	rentStep     int
	rooms        []roomTemplate
	description  string
	images       []string
	amenities    []string
	rules        []string
}

var allSeries = []series{
	{
		prefix:       "m",
		category:     models.CategoryMen,
		evenName:     "Stanza Men's Living %d",
		oddName:      "Zolo Men's Living %d",
		locationSkew: 0,
		luxury:       func(i int) bool { return i%3 == 0 },
		verified:     func(int) bool { return true },
		popular:      func(i int) bool { return i < 5 },
		buildingName: "Block A",
		rentStep:     100,
		rooms: []roomTemplate{
			{2, 9000, always(models.AvailabilityOpen)},
			{3, 7500, always(models.AvailabilityLimited)},
			{4, 6500, always(models.AvailabilityOpen)},
			{5, 5500, exhaustedEvery(4)},
			{6, 4800, always(models.AvailabilityOpen)},
		},
		description: "A premium stay designed for working professionals with high-speed internet and daily housekeeping.",
		images: []string{
			"https://images.unsplash.com/photo-1595526114035-0d45ed16cfbf?q=80&w=800&auto=format&fit=crop",
			"https://images.unsplash.com/photo-1555854811-8af2277430bb?q=80&w=800&auto=format&fit=crop",
		},
		amenities: []string{"Wi-Fi", "Security", "Laundry", "Food"},
		rules:     []string{"No smoking", "Gate closes at 11 PM"},
	},
	{
		prefix:       "l",
		category:     models.CategoryLadies,
		evenName:     "Nestaway Ladies %d",
		oddName:      "Grace Ladies Living %d",
		locationSkew: 2,
		luxury:       func(i int) bool { return i%4 == 0 },
		verified:     func(i int) bool { return i%2 == 0 },
		popular:      func(i int) bool { return i%3 == 0 },
		buildingName: "Main Wing",
		rentStep:     200,
		rooms: []roomTemplate{
			{1, 16000, always(models.AvailabilityOpen)},
			{2, 12000, exhaustedEvery(5)},
			{3, 10000, always(models.AvailabilityLimited)},
			{4, 8500, always(models.AvailabilityOpen)},
		},
		description: "Safe and secure residence for working women. High-end security and home-style food included.",
		images: []string{
			"https://images.unsplash.com/photo-1513161455079-7dc1de15ef3e?q=80&w=800&auto=format&fit=crop",
			"https://images.unsplash.com/photo-1524758631624-e2822e304c36?q=80&w=800&auto=format&fit=crop",
		},
		amenities: []string{"Biometric Access", "Gym", "Laundry", "Cafeteria"},
		rules:     []string{"No visitors in rooms", "Entry by 10 PM"},
	},
	{
		prefix:       "c",
		category:     models.CategoryCoLiving,
		evenName:     "Evolve Co-living %d",
		oddName:      "Zenith Luxury Suites %d",
		locationSkew: 5,
		luxury:       func(int) bool { return true },
		verified:     func(int) bool { return true },
		popular:      func(int) bool { return true },
		buildingName: "Premium Block",
		rentStep:     500,
		rooms: []roomTemplate{
			{1, 25000, always(models.AvailabilityOpen)},
			{2, 18000, always(models.AvailabilityLimited)},
			{3, 14000, always(models.AvailabilityOpen)},
			{4, 11000, always(models.AvailabilityOpen)},
			{5, 9500, always(models.AvailabilityLimited)},
			{6, 8000, always(models.AvailabilityOpen)},
		},
		description: "Luxury co-living spaces for the modern millennial. Includes community events and premium lounge access.",
		images: []string{
			"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?q=80&w=800&auto=format&fit=crop",
			"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688?q=80&w=800&auto=format&fit=crop",
		},
		amenities: []string{"Pool", "Gaming Zone", "Cleaning", "Events"},
		rules:     []string{"Respect quiet hours", "No pets"},
	},
}

func (s series) listing(i int) models.Listing {
	name := s.oddName
	if i%2 == 0 {
		name = s.evenName
	}

	rooms := make([]models.RoomOffer, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, models.RoomOffer{
			Sharing:      r.sharing,
			Rent:         r.baseRent + i*s.rentStep,
			Availability: r.avail(i),
		})
	}

	return models.Listing{
		ID:          fmt.Sprintf("%s%d", s.prefix, i),
		Name:        fmt.Sprintf(name, i),
		Location:    locations[(i+s.locationSkew)%len(locations)],
		Description: s.description,
		Category:    s.category,
		Luxury:      s.luxury(i),
		Verified:    s.verified(i),
		Popular:     s.popular(i),
		Images:      append([]string(nil), s.images...),
		Buildings: []models.Building{{
			ID:    fmt.Sprintf("b-%s%d", s.prefix, i),
			Name:  s.buildingName,
			Rooms: rooms,
		}},
		Amenities: append([]string(nil), s.amenities...),
		Rules:     append([]string(nil), s.rules...),
	}
}

// GenerateListings builds the fixed mock listing set: eleven listings per
// category, men first, then ladies, then co-living.
func GenerateListings() []models.Listing {
	out := make([]models.Listing, 0, ListingsPerCategory*len(allSeries))
	for _, s := range allSeries {
		for i := 1; i <= ListingsPerCategory; i++ {
			out = append(out, s.listing(i))
		}
	}
	return out
}

// Generate returns the mock catalog.
func Generate() *Catalog {
	c, err := New(GenerateListings())
	if err != nil {
		panic(fmt.Sprintf("generated catalog is invalid: %v", err))
	}
	return c
}
