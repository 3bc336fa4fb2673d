package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/fogleman/gg"
)

func newTestContext(t *testing.T) *gg.Context {
	t.Helper()
	return gg.NewContext(10, 10)
}

func createTestJPEG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestWatermarkJPEG(t *testing.T) {
	data := createTestJPEG(400, 400, color.RGBA{255, 255, 255, 255})
	result, err := Watermark(bytes.NewReader(data), "Tombamento 1001 - SALA 10 (BLOCO A)")
	if err != nil {
		t.Fatalf("Watermark JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 400 {
		t.Errorf("dimensions changed: %v", img.Bounds())
	}

	// The bottom band must be visibly darker than the untouched top.
	top := color.GrayModel.Convert(img.At(200, 10)).(color.Gray)
	bottom := color.GrayModel.Convert(img.At(10, 390)).(color.Gray)
	if int(top.Y)-int(bottom.Y) < 50 {
		t.Errorf("expected darkened band: top=%d bottom=%d", top.Y, bottom.Y)
	}
}

func TestWatermarkPNGAlwaysOutputsJPEG(t *testing.T) {
	data := createTestPNG(100, 100)
	result, err := Watermark(bytes.NewReader(data), "legenda")
	if err != nil {
		t.Fatalf("Watermark PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
}

func TestWatermarkDownscale(t *testing.T) {
	data := createTestJPEG(2400, 1200, color.RGBA{255, 0, 0, 255})
	result, err := Watermark(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("Watermark large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != MaxDimension || bounds.Dy() != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, bounds.Dx(), bounds.Dy())
	}
}

func TestWatermarkSmallImageNotUpscaled(t *testing.T) {
	data := createTestJPEG(50, 50, color.RGBA{255, 0, 0, 255})
	result, err := Watermark(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("Watermark small image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestWatermarkInvalidFormat(t *testing.T) {
	if _, err := Watermark(bytes.NewReader([]byte("not an image")), ""); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestWatermarkGIFRejected(t *testing.T) {
	if _, err := Watermark(bytes.NewReader([]byte("GIF89a...")), ""); err == nil {
		t.Error("expected error for GIF")
	}
}

func TestFitLinesTruncates(t *testing.T) {
	dc := newTestContext(t)
	long := "uma legenda extremamente longa que certamente nao cabe em duas linhas " +
		"de um carimbo de fotografia por mais largo que o quadro seja aqui"
	lines := fitLines(dc, long, 120)
	if len(lines) != maxLines {
		t.Fatalf("expected %d lines, got %d", maxLines, len(lines))
	}
	last := []rune(lines[len(lines)-1])
	if last[len(last)-1] != '…' {
		t.Errorf("expected ellipsis, got %q", lines[len(lines)-1])
	}
}
