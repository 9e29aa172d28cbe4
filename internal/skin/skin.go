// Package skin classifies player skin images by layout and memoizes the
// result per skin.
package skin

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SkinType is the texture layout of a skin image.
type SkinType int

const (
	Steve       SkinType = iota // classic 64x32 sheet
	SteveLayers                 // 64x64 sheet with second layer
	Alex                        // 64x64 sheet with slim arms
)

// ErrUnknownSkinType is returned by ParseSkinType.
var ErrUnknownSkinType = errors.New("unknown skin type")

// String returns the config name of the type.
func (t SkinType) String() string {
	switch t {
	case Steve:
		return "steve"
	case SteveLayers:
		return "steve_layers"
	case Alex:
		return "alex"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Modifier returns the model modifier tag selecting this layout. The default
// layered layout needs none.
func (t SkinType) Modifier() string {
	switch t {
	case Steve:
		return "steve"
	case Alex:
		return "alex"
	default:
		return ""
	}
}

// ParseSkinType parses a name produced by String.
func ParseSkinType(s string) (SkinType, error) {
	for _, t := range []SkinType{Steve, SteveLayers, Alex} {
		if t.String() == s {
			return t, nil
		}
	}
	return SteveLayers, errors.Wrapf(ErrUnknownSkinType, "%q", s)
}

// Alex marker pixel and the two regions that are empty on slim-arm skins,
// in 64px sheet coordinates.
var (
	alexMarker  = image.Pt(54, 20)
	alexRegions = []image.Rectangle{
		image.Rect(54, 20, 56, 32),
		image.Rect(50, 16, 52, 20),
	}
)

// Classify determines the layout of a decoded skin image.
func Classify(img image.Image) SkinType {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w == 2*h {
		return Steve
	}
	if w != h {
		return SteveLayers
	}

	scale := w / 64
	if scale == 0 {
		return SteveLayers
	}

	at := func(x, y int) (uint32, uint32, uint32, uint32) {
		return img.At(b.Min.X+x, b.Min.Y+y).RGBA()
	}

	if _, _, _, a := at(alexMarker.X*scale, alexMarker.Y*scale); a>>8 < 128 {
		return Alex
	}

	for _, region := range alexRegions {
		scaled := image.Rectangle{Min: region.Min.Mul(scale), Max: region.Max.Mul(scale)}
		if !allBlack(scaled, at) {
			return SteveLayers
		}
	}
	return Alex
}

func allBlack(r image.Rectangle, at func(x, y int) (uint32, uint32, uint32, uint32)) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if cr, cg, cb, _ := at(x, y); cr|cg|cb != 0 {
				return false
			}
		}
	}
	return true
}

// MaxImageSize bounds the width and height of a decodable skin.
const MaxImageSize = 1024

// ErrImageTooLarge is returned by Decode for images wider or taller than
// MaxImageSize.
var ErrImageTooLarge = errors.New("skin image dimensions too large")

// Decode decodes a PNG, BMP or WebP image after checking its header
// dimensions against MaxImageSize.
func Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decoding skin header")
	}
	if cfg.Width > MaxImageSize || cfg.Height > MaxImageSize {
		return nil, errors.Wrapf(ErrImageTooLarge, "%dx%d", cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decoding skin image")
	}
	return img, nil
}

// ClassifyBytes decodes a skin image and classifies it.
func ClassifyBytes(data []byte) (SkinType, error) {
	img, err := Decode(data)
	if err != nil {
		return SteveLayers, err
	}
	return Classify(img), nil
}
