// Package refsheet composes labeled reference images into a single sheet for
// multi-modal prompts.
package refsheet

import (
	"image"
	"image/color"
	"image/draw"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/deckgen-dev/deckgen/internal/imgutil"
)

const (
	DefaultCellSize   = 256
	DefaultMaxColumns = 3

	// Label strip height at the reference cell size; scales with the cell.
	baseLabelStrip    = 24
	referenceCellSize = 256
)

var (
	canvasColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	stripColor  = color.RGBA{R: 32, G: 32, B: 32, A: 255}
	labelColor  = color.RGBA{R: 240, G: 240, B: 240, A: 255}
)

// Source is one candidate reference image. Files that are missing or fail to
// decode are dropped, not fatal.
type Source struct {
	Path  string
	Label string
}

// Sheet is the composed reference image.
type Sheet struct {
	img *image.RGBA
}

func (s *Sheet) Image() image.Image { return s.img }

func (s *Sheet) PNG() ([]byte, error) { return imgutil.EncodePNG(s.img) }

// DataURI renders the sheet as an embeddable PNG data URI.
func (s *Sheet) DataURI() (string, error) {
	data, err := s.PNG()
	if err != nil {
		return "", err
	}
	return imgutil.PNGDataURI(data), nil
}

// Builder lays out reference images on a grid. Layout is a pure function of
// the ordered source list, labels and cell size: identical inputs produce
// pixel-identical sheets.
type Builder struct {
	CellSize   int
	MaxColumns int
	Fonts      FontResolver
}

type loadedRef struct {
	img   image.Image
	label string
}

// Build composes the sheet. It returns nil when no source resolves to a valid
// image, along with the number of sources dropped.
func (b *Builder) Build(sources []Source) (*Sheet, int) {
	cell := b.CellSize
	if cell <= 0 {
		cell = DefaultCellSize
	}
	maxCols := b.MaxColumns
	if maxCols <= 0 {
		maxCols = DefaultMaxColumns
	}
	fonts := b.Fonts
	if fonts == nil {
		fonts = SystemFonts()
	}

	var refs []loadedRef
	dropped := 0
	for _, src := range sources {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			dropped++
			continue
		}
		img, err := imgutil.Decode(data)
		if err != nil {
			dropped++
			continue
		}
		refs = append(refs, loadedRef{img: imgutil.Flatten(img), label: src.Label})
	}
	if len(refs) == 0 {
		return nil, dropped
	}

	if len(refs) == 1 {
		return &Sheet{img: b.composeSingle(refs[0], cell, fonts)}, dropped
	}
	return &Sheet{img: b.composeGrid(refs, cell, maxCols, fonts)}, dropped
}

// composeSingle resizes one image so its longest side fits the cell size and,
// when labeled, overlays a dark full-width strip along the top edge.
func (b *Builder) composeSingle(ref loadedRef, cell int, fonts FontResolver) *image.RGBA {
	resized := imgutil.ResizeLongestSide(ref.img, cell)
	rb := resized.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, rb.Dx(), rb.Dy()))
	draw.Draw(canvas, canvas.Bounds(), resized, rb.Min, draw.Src)

	if ref.label != "" {
		strip := stripHeight(cell)
		drawLabelStrip(canvas, image.Rect(0, 0, rb.Dx(), strip), ref.label, fonts)
	}
	return canvas
}

func (b *Builder) composeGrid(refs []loadedRef, cell, maxCols int, fonts FontResolver) *image.RGBA {
	n := len(refs)
	cols := n
	if cols > maxCols {
		cols = maxCols
	}
	rows := (n + cols - 1) / cols

	canvas := image.NewRGBA(image.Rect(0, 0, cols*cell, rows*cell))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(canvasColor), image.Point{}, draw.Src)

	strip := 0
	for _, r := range refs {
		if r.label != "" {
			strip = stripHeight(cell)
			break
		}
	}

	for i, ref := range refs {
		cellX := (i % cols) * cell
		cellY := (i / cols) * cell

		body := image.Rect(cellX, cellY+strip, cellX+cell, cellY+cell)
		placeFitted(canvas, body, ref.img)

		if strip > 0 {
			drawLabelStrip(canvas, image.Rect(cellX, cellY, cellX+cell, cellY+strip), ref.label, fonts)
		}
	}
	return canvas
}

// placeFitted scales img down (never up) to fit within body and draws it
// centered both horizontally and vertically.
func placeFitted(canvas *image.RGBA, body image.Rectangle, img image.Image) {
	bw, bh := body.Dx(), body.Dy()
	ib := img.Bounds()
	w, h := ib.Dx(), ib.Dy()

	if w > bw || h > bh {
		// integer fit: shrink by the tighter dimension
		if w*bh >= h*bw {
			h = h * bw / w
			w = bw
		} else {
			w = w * bh / h
			h = bh
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	x := body.Min.X + (bw-w)/2
	y := body.Min.Y + (bh-h)/2
	dst := image.Rect(x, y, x+w, y+h)
	xdraw.CatmullRom.Scale(canvas, dst, img, ib, xdraw.Over, nil)
}

func stripHeight(cell int) int {
	h := baseLabelStrip * cell / referenceCellSize
	if h < 1 {
		h = 1
	}
	return h
}

func drawLabelStrip(canvas *image.RGBA, strip image.Rectangle, label string, fonts FontResolver) {
	draw.Draw(canvas, strip, image.NewUniform(stripColor), image.Point{}, draw.Src)
	if label == "" {
		return
	}

	face, wide := fonts.Resolve()
	text := SanitizeLabel(label, wide)

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	descent := m.Descent.Ceil()

	x := strip.Min.X + (strip.Dx()-width)/2
	if x < strip.Min.X {
		x = strip.Min.X
	}
	y := strip.Min.Y + (strip.Dy()-(ascent+descent))/2 + ascent

	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}
