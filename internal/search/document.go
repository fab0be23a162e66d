// internal/search/document.go
package search

import (
	"strings"

	"stayease/internal/catalog"
	"stayease/internal/models"
)

// Document is the indexed form of a listing. Lower-cased copies of name and
// location back case-insensitive substring queries.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NameLC     string `json:"name_lc"`
	Location   string `json:"location"`
	LocationLC string `json:"location_lc"`
	Category   string `json:"category"`
	Sharing    []int  `json:"sharing"`
	Position   int    `json:"position"`
}

func NewDocument(l *models.Listing, position int) Document {
	return Document{
		ID:         l.ID,
		Name:       l.Name,
		NameLC:     strings.ToLower(l.Name),
		Location:   l.Location,
		LocationLC: strings.ToLower(l.Location),
		Category:   string(l.Category),
		Sharing:    catalog.SharingOptions(l),
		Position:   position,
	}
}

var indexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id":          map[string]interface{}{"type": "keyword"},
			"name":        map[string]interface{}{"type": "text"},
			"name_lc":     map[string]interface{}{"type": "keyword"},
			"location":    map[string]interface{}{"type": "text"},
			"location_lc": map[string]interface{}{"type": "keyword"},
			"category":    map[string]interface{}{"type": "keyword"},
			"sharing":     map[string]interface{}{"type": "integer"},
			"position":    map[string]interface{}{"type": "integer"},
		},
	},
}
