// Package images computes placeholder hashes for packet photos.
package images

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/url"
	"os"
	"path/filepath"

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ErrNotLocal is returned for photo URIs that do not name a local file.
var ErrNotLocal = errors.New("photo uri is not a local file")

// blurHashSize is the target size for BlurHash computation.
// A small thumbnail gives nearly the same hash in milliseconds.
const blurHashSize = 64

// LocalPath returns the filesystem path a photo URI refers to.
// Absolute paths and file:// URLs are local; anything else (content://,
// https://, relative paths) returns ErrNotLocal.
func LocalPath(uri string) (string, error) {
	if filepath.IsAbs(uri) {
		return filepath.Clean(uri), nil
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", ErrNotLocal
	}
	return filepath.FromSlash(u.Path), nil
}

// PlaceholderForURI computes a BlurHash for the image a photo URI points at.
func PlaceholderForURI(uri string) (string, error) {
	path, err := LocalPath(uri)
	if err != nil {
		return "", err
	}
	return ComputeBlurHash(path)
}

// ComputeBlurHash generates a BlurHash string from an image file.
// Uses 4x3 components, which keeps the hash around 20-30 characters.
func ComputeBlurHash(imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(4, 3, resizeForBlurHash(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}

	return hash, nil
}

// resizeForBlurHash scales img down with nearest-neighbor sampling so the
// longer side is at most blurHashSize.
func resizeForBlurHash(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = max((srcHeight*blurHashSize)/srcWidth, 1)
	} else {
		dstHeight = blurHashSize
		dstWidth = max((srcWidth*blurHashSize)/srcHeight, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := range dstHeight {
		for x := range dstWidth {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
