package ghosttag

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/bodgit/ghosttag/header"
	"github.com/bodgit/ghosttag/pixel"
)

func (gt *GhostTag) load(file string) (*pixel.Grid, []byte, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}

	m, _, err := pixel.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}

	g, err := pixel.FromImage(m, gt.channels)
	if err != nil {
		return nil, nil, err
	}

	return g, b, nil
}

// EmbedFile hides message in the image at src and writes the result to dst.
// Unless dst names a lossless format ".png" is appended to it. The path
// actually written is returned.
func (gt *GhostTag) EmbedFile(src, dst string, message []byte) (string, error) {
	src, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}

	dst, err = filepath.Abs(pixel.LosslessName(dst))
	if err != nil {
		return "", err
	}

	g, _, err := gt.load(src)
	if err != nil {
		return "", err
	}

	out, err := gt.Embed(g, message)
	if err != nil {
		return "", err
	}

	b := new(bytes.Buffer)
	if err := pixel.Encode(b, out.Image(), dst); err != nil {
		return "", err
	}

	if err := os.WriteFile(dst, b.Bytes(), 0644); err != nil {
		return "", err
	}

	if gt.ledger != nil {
		h, err := ReadHeader(out)
		if err != nil {
			return "", err
		}
		if err := gt.ledger.Record(&Entry{
			Fingerprint: fingerprint(b.Bytes()),
			Path:        dst,
			Width:       out.Width,
			Height:      out.Height,
			Channels:    out.Channels,
			Redundancy:  int(h.Redundancy),
			Length:      int(h.Length),
		}); err != nil {
			return "", err
		}
	}

	return dst, nil
}

// ExtractFile recovers a message from the image at src
func (gt *GhostTag) ExtractFile(src string) ([]byte, error) {
	g, b, err := gt.load(src)
	if err != nil {
		return nil, err
	}

	if gt.ledger != nil {
		e, err := gt.ledger.FindByFingerprint(fingerprint(b))
		if err != nil {
			return nil, err
		}
		if e != nil {
			gt.logger.Printf("\"%s\" matches ledger entry %s written %s\n", src, e.ID, e.Created.Format("2006-01-02 15:04:05"))
		} else {
			gt.logger.Printf("No ledger entry for \"%s\"\n", src)
		}
	}

	return gt.Extract(g)
}

// InspectFile returns the header of any message in the image at src
func (gt *GhostTag) InspectFile(src string) (*header.Header, error) {
	g, _, err := gt.load(src)
	if err != nil {
		return nil, err
	}
	return gt.Inspect(g)
}

// CapacityFile returns the longest message in bytes that fits in the image
// at src
func (gt *GhostTag) CapacityFile(src string) (int, error) {
	g, _, err := gt.load(src)
	if err != nil {
		return 0, err
	}
	return gt.Capacity(g), nil
}

// PlaneFile writes the least significant bit plane of the image at src to
// dst as a lossless image
func (gt *GhostTag) PlaneFile(src, dst string) (string, error) {
	g, _, err := gt.load(src)
	if err != nil {
		return "", err
	}

	dst, err = filepath.Abs(pixel.LosslessName(dst))
	if err != nil {
		return "", err
	}

	b := new(bytes.Buffer)
	if err := pixel.Encode(b, pixel.Plane(g), dst); err != nil {
		return "", err
	}

	if err := os.WriteFile(dst, b.Bytes(), 0644); err != nil {
		return "", err
	}

	return dst, nil
}
