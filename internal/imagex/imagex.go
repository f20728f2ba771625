// Package imagex re-encodes raster images with lossy settings to reclaim
// space before a payload is stored. Formats it does not recognize pass
// through untouched, and callers are expected to fall back to the original
// bytes on any error.
package imagex

import (
	"bytes"
	"image/jpeg"
	"image/png"
)

// jpegQuality trades visible quality for size; matches typical thumbnailer
// settings.
const jpegQuality = 75

// Recompress re-encodes the payload according to its resolved extension.
// JPEG is re-encoded at a reduced quality, PNG is re-encoded with the best
// compression level. Any other extension returns the input unchanged.
func Recompress(data []byte, ext string) ([]byte, error) {
	switch ext {
	case ".jpg", ".jpeg":
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}
