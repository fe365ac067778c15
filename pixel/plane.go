package pixel

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// Every combination of three least significant bits
const planeColors = 8

// Plane renders the least significant bit of each color channel at full
// intensity, alpha is ignored. Scattered payloads show up as noise against
// the structure of the cover image.
func Plane(g *Grid) *image.Paletted {
	b := image.Rect(0, 0, g.Width, g.Height)

	m := image.NewNRGBA(b)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			m.SetNRGBA(x, y, color.NRGBA{
				R: (g.At(x, y, 0) & 1) * 0xff,
				G: (g.At(x, y, 1) & 1) * 0xff,
				B: (g.At(x, y, 2) & 1) * 0xff,
				A: 0xff,
			})
		}
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, planeColors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm
}
