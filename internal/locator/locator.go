// Package locator extracts image URLs from free-text model replies.
package locator

import "regexp"

// Models reply with prose around the generated image. Two shapes show up in
// practice: a markdown image reference, or a bare URL ending in an image
// extension. The markdown form is tried first.
var (
	markdownImageRe = regexp.MustCompile(`!\[.*?\]\((https?://[^\s)]+)\)`)
	bareImageURLRe  = regexp.MustCompile(`(?i)(https?://\S+\.(?:png|jpg|jpeg|webp|gif))`)
)

// Extract returns the first image URL found in text. A miss is a normal
// condition handled by the caller's retry loop, not an error.
func Extract(text string) (string, bool) {
	if m := markdownImageRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := bareImageURLRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}
