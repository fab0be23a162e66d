// pkg/catalogfile/catalogfile.go
package catalogfile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"stayease/internal/catalog"
	"stayease/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// CurrentVersion is written by Save.
const CurrentVersion = "1.0"

//go:embed schema.json
var schema []byte

var ErrInvalidFile = errors.New("invalid catalog file")

// File is a catalog seed on disk.
type File struct {
	Version     string           `json:"version"`
	GeneratedAt string           `json:"generatedAt,omitempty"`
	Listings    []models.Listing `json:"listings"`
}

// Validate checks raw seed data against the embedded schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidFile, strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates data and decodes it.
func Parse(data []byte) (*File, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadCatalog reads a seed file and builds a catalog from it.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	return catalog.New(f.Listings)
}

// Save writes listings as a seed file.
func Save(path string, listings []models.Listing) error {
	data, err := json.MarshalIndent(File{
		Version:     CurrentVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Listings:    listings,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
