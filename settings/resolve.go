package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/deckgen-dev/deckgen"
)

// labelMaxRunes caps the description portion of a reference label.
const labelMaxRunes = 30

// Resolve turns catalog keys into labelled reference images with absolute
// paths, skipping files that no longer exist. Accepted keys: "art_style",
// a whole category ("characters"), or a single entry ("characters/hero").
// The art style, when requested, always sorts first.
func (c *Catalog) Resolve(baseDir string, keys []string) ([]deckgen.ReferenceImage, error) {
	var refs []deckgen.ReferenceImage
	seen := map[string]bool{}

	add := func(label string, entry Entry) {
		for _, img := range entry.Images {
			path := img
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, img)
			}
			if seen[path] {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				continue
			}
			seen[path] = true
			refs = append(refs, deckgen.ReferenceImage{Path: path, Label: label})
		}
	}

	for _, key := range keys {
		switch {
		case key == CategoryArtStyle:
			add("Art Style: "+truncate(c.ArtStyle.Description), c.ArtStyle)
		case key == CategoryCharacters || key == CategoryWorld || key == CategoryProps:
			group, _ := c.group(key)
			for _, name := range sortedNames(group) {
				add(name+": "+truncate(group[name].Description), group[name])
			}
		case strings.Contains(key, "/"):
			category, name, _ := strings.Cut(key, "/")
			group, err := c.group(category)
			if err != nil {
				return nil, err
			}
			entry, ok := group[name]
			if !ok {
				return nil, fmt.Errorf("unknown entry %q", key)
			}
			add(name+": "+truncate(entry.Description), entry)
		default:
			return nil, fmt.Errorf("unknown settings key %q", key)
		}
	}
	return refs, nil
}

// ResolveDescriptions renders the textual context for the same keys, used to
// prefix prompts when the entries carry descriptions but no usable images.
func (c *Catalog) ResolveDescriptions(keys []string) (string, error) {
	var b strings.Builder
	for _, key := range keys {
		switch {
		case key == CategoryArtStyle:
			if c.ArtStyle.Description != "" {
				fmt.Fprintf(&b, "[Style: %s] ", c.ArtStyle.Description)
			}
		case key == CategoryCharacters || key == CategoryWorld || key == CategoryProps:
			group, _ := c.group(key)
			for _, name := range sortedNames(group) {
				if d := group[name].Description; d != "" {
					fmt.Fprintf(&b, "[%s/%s: %s] ", key, name, d)
				}
			}
		case strings.Contains(key, "/"):
			category, name, _ := strings.Cut(key, "/")
			group, err := c.group(category)
			if err != nil {
				return "", err
			}
			entry, ok := group[name]
			if !ok {
				return "", fmt.Errorf("unknown entry %q", key)
			}
			if entry.Description != "" {
				fmt.Fprintf(&b, "[%s: %s] ", key, entry.Description)
			}
		default:
			return "", fmt.Errorf("unknown settings key %q", key)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= labelMaxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:labelMaxRunes])
}

func sortedNames(group map[string]Entry) []string {
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
