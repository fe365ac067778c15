/*
Package pixel implements the pixel grid the embedding engine reads and writes.

A Grid holds 8-bit channel values for every pixel in raster order, three
channels (red, green, blue) or four (with alpha). Channel values are addressed
either by (x, y, channel) or by a single slot index counting through the
channels of each pixel, then the pixels of each row, then the rows.
*/
package pixel

import (
	"errors"
	"image"
	"image/color"
)

var (
	errChannels = errors.New("pixel: channel count must be 3 or 4")
	errEmpty    = errors.New("pixel: image has no pixels")
)

// Grid is a width by height array of pixels with Channels values each
type Grid struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8

	// Alpha holds the untouched alpha channel when Channels is 3, nil
	// means fully opaque
	Alpha []uint8
}

// NewGrid returns an empty grid
func NewGrid(width, height, channels int) (*Grid, error) {
	if channels != 3 && channels != 4 {
		return nil, errChannels
	}
	if width <= 0 || height <= 0 {
		return nil, errEmpty
	}
	return &Grid{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// FromImage copies m into a new grid with the given number of channels
func FromImage(m image.Image, channels int) (*Grid, error) {
	b := m.Bounds()
	g, err := NewGrid(b.Dx(), b.Dy(), channels)
	if err != nil {
		return nil, err
	}

	var alpha []uint8
	if channels == 3 {
		alpha = make([]uint8, g.Width*g.Height)
	}
	opaque := true

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			g.Pix[i+0] = c.R
			g.Pix[i+1] = c.G
			g.Pix[i+2] = c.B
			if channels == 4 {
				g.Pix[i+3] = c.A
			} else {
				alpha[i/3] = c.A
				if c.A != 0xff {
					opaque = false
				}
			}
			i += channels
		}
	}

	if !opaque {
		g.Alpha = alpha
	}

	return g, nil
}

// Image returns the grid as an image with its top-left corner at (0, 0)
func (g *Grid) Image() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for p := 0; p < g.Width*g.Height; p++ {
		src := g.Pix[p*g.Channels:]
		dst := m.Pix[p*4:]
		copy(dst[:3], src[:3])
		switch {
		case g.Channels == 4:
			dst[3] = src[3]
		case g.Alpha != nil:
			dst[3] = g.Alpha[p]
		default:
			dst[3] = 0xff
		}
	}
	return m
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	dup := *g
	dup.Pix = append([]uint8(nil), g.Pix...)
	if g.Alpha != nil {
		dup.Alpha = append([]uint8(nil), g.Alpha...)
	}
	return &dup
}

// Len returns the number of addressable channel values
func (g *Grid) Len() int {
	return len(g.Pix)
}

// Slot converts a raster slot index into its coordinate and channel
func (g *Grid) Slot(i int) (x, y, c int) {
	p := i / g.Channels
	return p % g.Width, p / g.Width, i % g.Channels
}

func (g *Grid) offset(x, y, c int) int {
	return (y*g.Width+x)*g.Channels + c
}

// At returns the value of channel c of the pixel at (x, y)
func (g *Grid) At(x, y, c int) uint8 {
	return g.Pix[g.offset(x, y, c)]
}

// Set stores v in channel c of the pixel at (x, y)
func (g *Grid) Set(x, y, c int, v uint8) {
	g.Pix[g.offset(x, y, c)] = v
}
