// Package imaging processes inspection photos: every upload is validated,
// downscaled and stamped with a caption band before storage. Only the
// watermarked JPEG is ever kept.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height for stored photos.
const MaxDimension = 1600

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// Caption band geometry: a translucent strip across the bottom of the photo.
const (
	bandRatio     = 0.15
	minBandHeight = 48
	bandOpacity   = 0.55
	maxLines      = 2
)

// FontPathEnv optionally points at a TTF file for the caption. Without it the
// built-in bitmap face is used.
const FontPathEnv = "WATERMARK_FONT_PATH"

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ProcessResult contains the processed image data.
type ProcessResult struct {
	Data []byte
	MIME string
}

// Watermark reads a raw upload, validates the format by sniffing bytes (never
// trusting client headers), downscales oversized photos, draws the caption
// band and re-encodes as JPEG.
func Watermark(r io.Reader, caption string) (*ProcessResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, MaxDimension)
	img = stamp(img, caption)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &ProcessResult{
		Data: buf.Bytes(),
		MIME: "image/jpeg",
	}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim, using
// Catmull-Rom interpolation. Small images pass through untouched.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// stamp draws the translucent black band across the bottom of the photo with
// the caption centered in white, wrapped to at most two lines.
func stamp(img image.Image, caption string) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	band := int(float64(h) * bandRatio)
	if band < minBandHeight {
		band = minBandHeight
	}
	if band > h {
		band = h
	}

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, 0, 0)
	dc.SetRGBA(0, 0, 0, bandOpacity)
	dc.DrawRectangle(0, float64(h-band), float64(w), float64(band))
	dc.Fill()

	caption = strings.TrimSpace(caption)
	if caption == "" {
		return dc.Image()
	}

	if path := os.Getenv(FontPathEnv); path != "" {
		size := float64(band) * 0.32
		if size < 12 {
			size = 12
		}
		// Keep the built-in face if the font fails to load.
		_ = dc.LoadFontFace(path, size)
	}

	dc.SetRGB(1, 1, 1)
	lines := fitLines(dc, caption, float64(w)*0.94)
	lineHeight := dc.FontHeight() * 1.4
	startY := float64(h) - float64(band)/2 - lineHeight*float64(len(lines)-1)/2
	for i, line := range lines {
		dc.DrawStringAnchored(line, float64(w)/2, startY+lineHeight*float64(i), 0.5, 0.5)
	}
	return dc.Image()
}

// fitLines word-wraps the caption to the band width and truncates with an
// ellipsis when it would exceed the line limit.
func fitLines(dc *gg.Context, s string, maxWidth float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if width, _ := dc.MeasureString(candidate); width <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = ellipsize(dc, lines[maxLines-1], maxWidth)
	}
	return lines
}

func ellipsize(dc *gg.Context, s string, maxWidth float64) string {
	runes := []rune(s)
	for len(runes) > 1 {
		candidate := string(runes) + "…"
		if width, _ := dc.MeasureString(candidate); width <= maxWidth {
			return candidate
		}
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func init() {
	// Register decoders (jpeg is registered by default, but be explicit).
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
