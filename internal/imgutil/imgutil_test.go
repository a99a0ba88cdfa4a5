package imgutil

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestResizeLongestSide(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"landscape shrinks", 1024, 512, 256, 256, 128},
		{"portrait shrinks", 300, 600, 256, 128, 256},
		{"within bounds untouched", 100, 50, 256, 100, 50},
		{"square", 512, 512, 256, 256, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ResizeLongestSide(solid(tt.w, tt.h, color.White), tt.max)
			b := out.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Fatalf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := EncodePNG(solid(8, 8, color.RGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	img, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 {
		t.Fatalf("bounds=%v", img.Bounds())
	}
}

func TestFlattenRemovesAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	// fully transparent pixel should end up white, not black
	out := Flatten(src)
	r, g, b, a := out.At(0, 0).RGBA()
	if a != 0xffff || r != 0xffff || g != 0xffff || b != 0xffff {
		t.Fatalf("got rgba(%d,%d,%d,%d), want opaque white", r, g, b, a)
	}
}

func TestPNGDataURI(t *testing.T) {
	uri := PNGDataURI([]byte{1, 2, 3})
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("uri=%q", uri)
	}
}
