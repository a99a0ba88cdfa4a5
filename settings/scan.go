package settings

import (
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// Scan walks the settings folder tree and registers any image files it finds.
// Files directly under settings/art_style/ belong to the art style; under the
// other categories each subdirectory names an entry. Existing descriptions
// are preserved. Returns the number of newly registered images.
func (c *Catalog) Scan(baseDir string) (int, error) {
	added := 0

	styleDir := filepath.Join(baseDir, Dir, CategoryArtStyle)
	files, err := imageFiles(styleDir)
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		rel := filepath.Join(Dir, CategoryArtStyle, f)
		before := len(c.ArtStyle.Images)
		c.ArtStyle.Images = appendUnique(c.ArtStyle.Images, []string{rel})
		added += len(c.ArtStyle.Images) - before
	}

	for _, cat := range []string{CategoryCharacters, CategoryWorld, CategoryProps} {
		catDir := filepath.Join(baseDir, Dir, cat)
		entries, err := os.ReadDir(catDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return added, err
		}
		group, _ := c.group(cat)
		for _, ent := range entries {
			if !ent.IsDir() {
				continue
			}
			name := ent.Name()
			imgs, err := imageFiles(filepath.Join(catDir, name))
			if err != nil {
				return added, err
			}
			item := group[name]
			for _, f := range imgs {
				rel := filepath.Join(Dir, cat, name, f)
				before := len(item.Images)
				item.Images = appendUnique(item.Images, []string{rel})
				added += len(item.Images) - before
			}
			group[name] = item
		}
	}
	return added, nil
}

func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(ent.Name()))] {
			files = append(files, ent.Name())
		}
	}
	return files, nil
}
