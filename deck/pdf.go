package deck

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/deckgen-dev/deckgen/internal/imgutil"
)

// pdfDPI controls the pixel-to-page mapping when binding slides.
const pdfDPI = 150

// BindPDF writes the given slide images into a single PDF, one page per
// image, each page sized to the image itself. Images are re-encoded to PNG
// so mixed source formats bind uniformly.
func BindPDF(outPath string, imagePaths []string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no slide images to bind")
	}

	const mmPerInch = 25.4
	doc := fpdf.NewCustom(&fpdf.InitType{UnitStr: "mm"})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	for i, path := range imagePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read slide %s: %w", path, err)
		}
		img, err := imgutil.Decode(data)
		if err != nil {
			return fmt.Errorf("decode slide %s: %w", path, err)
		}
		png, err := imgutil.EncodePNG(imgutil.Flatten(img))
		if err != nil {
			return fmt.Errorf("encode slide %s: %w", path, err)
		}

		bounds := img.Bounds()
		wMM := float64(bounds.Dx()) / pdfDPI * mmPerInch
		hMM := float64(bounds.Dy()) / pdfDPI * mmPerInch

		name := fmt.Sprintf("slide-%d", i)
		doc.RegisterImageOptionsReader(name,
			fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		doc.AddPageFormat("P", fpdf.SizeType{Wd: wMM, Ht: hMM})
		doc.ImageOptions(name, 0, 0, wMM, hMM, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
