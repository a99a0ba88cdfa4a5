// Package settings maintains the on-disk catalog of reference material:
// named entries with descriptions and image lists, grouped into fixed
// categories, stored as settings/settings.json under a project directory.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	Dir      = "settings"
	FileName = "settings.json"

	// CategoryArtStyle is a singleton entry; the rest are named collections.
	CategoryArtStyle   = "art_style"
	CategoryCharacters = "characters"
	CategoryWorld      = "world"
	CategoryProps      = "props"
)

var Categories = []string{CategoryArtStyle, CategoryCharacters, CategoryWorld, CategoryProps}

// Entry is one catalog item: a short description plus reference image paths
// relative to the project directory.
type Entry struct {
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// Catalog is the full settings file.
type Catalog struct {
	ArtStyle   Entry            `json:"art_style"`
	Characters map[string]Entry `json:"characters"`
	World      map[string]Entry `json:"world"`
	Props      map[string]Entry `json:"props"`
}

func filePath(baseDir string) string {
	return filepath.Join(baseDir, Dir, FileName)
}

// Init creates the settings folder structure and an empty catalog. It is a
// no-op when the catalog file already exists.
func Init(baseDir string) error {
	path := filePath(baseDir)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	for _, cat := range Categories {
		if err := os.MkdirAll(filepath.Join(baseDir, Dir, cat), 0o755); err != nil {
			return err
		}
	}
	c := &Catalog{
		ArtStyle:   Entry{Images: []string{}},
		Characters: map[string]Entry{},
		World:      map[string]Entry{},
		Props:      map[string]Entry{},
	}
	return c.Save(baseDir)
}

// Load reads the catalog. A missing file is an error: run Init first.
func Load(baseDir string) (*Catalog, error) {
	data, err := os.ReadFile(filePath(baseDir))
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if c.Characters == nil {
		c.Characters = map[string]Entry{}
	}
	if c.World == nil {
		c.World = map[string]Entry{}
	}
	if c.Props == nil {
		c.Props = map[string]Entry{}
	}
	return &c, nil
}

// Save writes the catalog, creating the settings directory as needed.
func (c *Catalog) Save(baseDir string) error {
	if err := os.MkdirAll(filepath.Join(baseDir, Dir), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath(baseDir), data, 0o644)
}

// Add updates an entry in place. For art_style the name is ignored; other
// categories require one. Images are deduplicated, empty description keeps
// the old one.
func (c *Catalog) Add(category, name, description string, images []string) error {
	if category == CategoryArtStyle {
		if description != "" {
			c.ArtStyle.Description = description
		}
		c.ArtStyle.Images = appendUnique(c.ArtStyle.Images, images)
		return nil
	}

	group, err := c.group(category)
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("name required for " + category)
	}
	entry := group[name]
	if description != "" {
		entry.Description = description
	}
	entry.Images = appendUnique(entry.Images, images)
	group[name] = entry
	return nil
}

func (c *Catalog) group(category string) (map[string]Entry, error) {
	switch category {
	case CategoryCharacters:
		return c.Characters, nil
	case CategoryWorld:
		return c.World, nil
	case CategoryProps:
		return c.Props, nil
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

func appendUnique(dst []string, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
