package enrichment

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"platter/internal/album"
)

const jpegQuality = 85

// Normalizer rescales and re-encodes fetched cover art so every stored cover
// shares one resolution ceiling and format.
type Normalizer struct {
	// TargetSize is the maximum edge length in pixels. Smaller images are
	// kept at their native size.
	TargetSize int
	// Format is the storage encoding, "jpeg" or "png".
	Format string
}

// Normalize returns the cover scaled to fit the target size and encoded in
// the configured format. Covers already within bounds and in the right
// format pass through untouched.
func (n *Normalizer) Normalize(cover *album.CoverImage) (*album.CoverImage, error) {
	if cover.Size() == 0 {
		return cover, nil
	}
	format := n.Format
	if format == "" {
		format = "jpeg"
	}

	src, _, err := image.Decode(bytes.NewReader(cover.Data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if n.TargetSize > 0 && (width > n.TargetSize || height > n.TargetSize) {
		scale := float64(n.TargetSize) / float64(max(width, height))
		dst := image.NewRGBA(image.Rect(0, 0,
			max(1, int(float64(width)*scale)),
			max(1, int(float64(height)*scale))))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		src = dst
	} else if cover.Format == format {
		return cover, nil
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, src)
	default:
		err = jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode cover as %s: %w", format, err)
	}
	return &album.CoverImage{Data: buf.Bytes(), Format: format}, nil
}
