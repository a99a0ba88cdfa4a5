package refsheet

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

const labelFontSize = 14

// FontResolver supplies the face used for label strips. Implementations are
// queried once per process and may cache; the second return reports whether
// the face can render non-Latin (wide) scripts such as CJK.
type FontResolver interface {
	Resolve() (font.Face, bool)
}

type fontProbe struct {
	path string
	wide bool
}

// Probed in order; the first file that parses wins. Wide-script fonts come
// first so CJK labels stay readable when one is installed.
var fontProbes = []fontProbe{
	{"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc", true},
	{"/usr/share/fonts/truetype/noto/NotoSansCJK-Regular.ttc", true},
	{"/System/Library/Fonts/PingFang.ttc", true},
	{"/Library/Fonts/Arial Unicode.ttf", true},
	{`C:\Windows\Fonts\msyh.ttc`, true},
	{"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf", false},
	{"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf", false},
	{"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf", false},
}

type systemFontResolver struct {
	once sync.Once
	face font.Face
	wide bool
}

// SystemFonts probes well-known font locations the first time it is asked and
// caches the result for the rest of the process. When nothing parses it falls
// back to the built-in ASCII bitmap face.
func SystemFonts() FontResolver {
	return &systemFontResolver{}
}

func (r *systemFontResolver) Resolve() (font.Face, bool) {
	r.once.Do(func() {
		for _, p := range fontProbes {
			face, err := loadFace(p.path, labelFontSize)
			if err != nil {
				continue
			}
			r.face, r.wide = face, p.wide
			return
		}
		r.face, r.wide = basicfont.Face7x13, false
	})
	return r.face, r.wide
}

func loadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f *opentype.Font
	if strings.HasSuffix(strings.ToLower(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		f, err = coll.Font(0)
		if err != nil {
			return nil, err
		}
	} else {
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, err
		}
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face for %s: %w", path, err)
	}
	return face, nil
}

// SanitizeLabel makes a label renderable by the selected face. Wide-capable
// faces render anything; otherwise characters outside the printable 7-bit
// range are stripped. Stripping that would empty the label keeps the original
// (unreadable) text instead of dropping the label.
func SanitizeLabel(label string, wide bool) string {
	if wide {
		return label
	}
	var b strings.Builder
	for _, r := range label {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	stripped := strings.TrimSpace(b.String())
	if stripped == "" {
		return label
	}
	return stripped
}
