package converter

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestConvertImage_JPEGToPNG(t *testing.T) {
	inputs := []Input{{Name: "photo.jpg", Kind: "jpg", Data: testJPEG(t, 64, 48)}}

	out, err := ConvertImage(context.Background(), inputs, "png")
	if err != nil {
		t.Fatalf("ConvertImage failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 48 {
		t.Errorf("expected 64x48, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestConvertImage_PNGToJPEG(t *testing.T) {
	src := &bytes.Buffer{}
	if err := png.Encode(src, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	inputs := []Input{{Name: "pic.png", Kind: "png", Data: src.Bytes()}}

	out, err := ConvertImage(context.Background(), inputs, "jpg")
	if err != nil {
		t.Fatalf("ConvertImage failed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
}

func TestConvertImage_UnsupportedTarget(t *testing.T) {
	inputs := []Input{{Name: "photo.jpg", Kind: "jpg", Data: testJPEG(t, 8, 8)}}
	if _, err := ConvertImage(context.Background(), inputs, "bmp"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConvertImage_RejectsMultipleInputs(t *testing.T) {
	data := testJPEG(t, 8, 8)
	inputs := []Input{
		{Name: "a.jpg", Kind: "jpg", Data: data},
		{Name: "b.jpg", Kind: "jpg", Data: data},
	}
	if _, err := ConvertImage(context.Background(), inputs, "png"); err == nil {
		t.Fatal("expected error for multiple inputs")
	}
}

func TestConvertImage_CorruptInput(t *testing.T) {
	inputs := []Input{{Name: "broken.jpg", Kind: "jpg", Data: []byte("not an image")}}
	if _, err := ConvertImage(context.Background(), inputs, "png"); err == nil {
		t.Fatal("expected decode error for corrupt input")
	}
}
