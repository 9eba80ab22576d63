// Package imaging validates and normalizes uploaded profile pictures
// before they reach the face service or the blob store.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the largest width or height forwarded to the face
// service; bigger uploads are downscaled.
const MaxDimension = 1920

const jpegQuality = 85

// ErrUnsupportedImage means the upload could not be decoded as any of the
// supported formats (JPEG, PNG, BMP, WebP).
var ErrUnsupportedImage = errors.New("unsupported or corrupt image upload")

// Normalize decodes an uploaded image, downscales it to fit MaxDimension
// while keeping aspect ratio, and re-encodes it as JPEG so every stored
// picture has a consistent format and bounded size.
func Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= MaxDimension && height <= MaxDimension {
		return encodeJPEG(img)
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = MaxDimension
		newHeight = int(float64(height) * float64(MaxDimension) / float64(width))
	} else {
		newHeight = MaxDimension
		newWidth = int(float64(width) * float64(MaxDimension) / float64(height))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(resized)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
