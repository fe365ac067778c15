package pixel

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrLossy is returned when asked to encode a format that would alter
// channel values
var ErrLossy = errors.New("pixel: not a lossless format")

type encodeFunc func(io.Writer, image.Image) error

// Only formats that store every channel value exactly are written
var lossless = map[string]encodeFunc{
	".png":  png.Encode,
	".bmp":  bmp.Encode,
	".qoi":  qoi.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeTIFF(w io.Writer, m image.Image) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
}

// Lossless reports whether the file extension of name is a format that can
// be written without altering any channel value
func Lossless(name string) bool {
	_, ok := lossless[strings.ToLower(filepath.Ext(name))]
	return ok
}

// LosslessName returns name unchanged if it already names a lossless format,
// otherwise with ".png" appended
func LosslessName(name string) string {
	if Lossless(name) {
		return name
	}
	return name + ".png"
}

// Decode reads any registered image format from r
func Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// Encode writes m to w in the lossless format implied by the extension of
// name
func Encode(w io.Writer, m image.Image, name string) error {
	enc, ok := lossless[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return ErrLossy
	}
	return enc(w, m)
}
