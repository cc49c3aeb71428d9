// Package imaging shrinks product photos before they are stored and moves
// them in and out of data URLs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 800
	DefaultQuality      = 70
	DefaultMaxBytes     = 5 << 20

	ContentTypeJPEG = "image/jpeg"
)

var (
	ErrTooLarge    = errors.New("image is too large")
	ErrUndecodable = errors.New("image could not be decoded")
	ErrNotADataURL = errors.New("not a base64 data URL")
)

// Options controls Compress.
type Options struct {
	MaxDimension int
	Quality      int
	MaxBytes     int64
}

func DefaultOptions() Options {
	return Options{MaxDimension: DefaultMaxDimension, Quality: DefaultQuality, MaxBytes: DefaultMaxBytes}
}

// Compress decodes data, scales it so the longer side is at most
// MaxDimension and re-encodes it as JPEG. Smaller images keep their size.
func Compress(data []byte, opts Options) ([]byte, error) {
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes, limit %d", len(data), opts.MaxBytes)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrUndecodable, err.Error())
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), opts.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; transparent areas become white like a canvas export
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// fit scales w×h down so neither side exceeds limit, keeping the aspect ratio.
func fit(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, atLeastOne(h * limit / w)
	}
	return atLeastOne(w * limit / h), limit
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// EncodeDataURL renders data as data:<type>;base64,<payload>.
func EncodeDataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL reports whether s looks like a data URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL splits a base64 data URL into its content type and bytes.
func DecodeDataURL(s string) (string, []byte, error) {
	if !IsDataURL(s) {
		return "", nil, ErrNotADataURL
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrNotADataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(err, "decode data URL")
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "text/plain"
	}
	return contentType, data, nil
}
