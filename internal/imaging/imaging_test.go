package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"
)

// encodePhoto renders a w x h gradient and encodes it with encode. The
// gradient keeps the JPEG output from collapsing to a trivially small file.
func encodePhoto(t *testing.T, w, h int, encode func(io.Writer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encoding test photo: %v", err)
	}
	return buf.Bytes()
}

func jpegPhoto(t *testing.T, w, h int) []byte {
	return encodePhoto(t, w, h, func(buf io.Writer, img image.Image) error {
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	})
}

func pngPhoto(t *testing.T, w, h int) []byte {
	return encodePhoto(t, w, h, png.Encode)
}

// webpPhoto is a 16x16 WebP file (extended VP8X container with an alpha
// chunk). The standard library cannot encode WebP, so the fixture is
// checked in as bytes.
var webpPhoto = []byte{
	0x52, 0x49, 0x46, 0x46, 0xa8, 0x01, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50,
	0x56, 0x50, 0x38, 0x58, 0x0a, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
	0x0f, 0x00, 0x00, 0x0f, 0x00, 0x00, 0x41, 0x4c, 0x50, 0x48, 0xc3, 0x00,
	0x00, 0x00, 0x01, 0x27, 0xa2, 0xa8, 0x91, 0x24, 0xe5, 0x7a, 0xe7, 0x18,
	0x5f, 0xe7, 0xdf, 0x2a, 0x99, 0x88, 0x98, 0xff, 0x74, 0x71, 0x8d, 0xe0,
	0x26, 0x30, 0xe2, 0xe1, 0x8b, 0x77, 0x32, 0xc8, 0xc1, 0x11, 0x5c, 0x83,
	0x2b, 0x30, 0xe8, 0xb0, 0x78, 0x15, 0x8e, 0x78, 0x51, 0x35, 0xc1, 0x08,
	0x0c, 0x02, 0x4f, 0x92, 0xa0, 0x6a, 0xb0, 0x55, 0x19, 0x1c, 0xd6, 0xb6,
	0x6d, 0x46, 0x2f, 0x4e, 0xc6, 0x76, 0x3c, 0xb6, 0xed, 0x77, 0xfb, 0xaf,
	0x29, 0xae, 0x21, 0xa2, 0xff, 0x49, 0xd1, 0xfd, 0x8f, 0x90, 0xf7, 0xba,
	0x44, 0x49, 0x24, 0x1b, 0x3a, 0x25, 0x91, 0x34, 0xf3, 0x14, 0x6d, 0x0e,
	0xc7, 0xd3, 0xe5, 0x16, 0x20, 0xf4, 0x0b, 0x14, 0xbe, 0x90, 0xe1, 0x83,
	0xb7, 0x1a, 0x32, 0x9e, 0x36, 0x82, 0x7f, 0x1d, 0x29, 0x7e, 0x4e, 0x76,
	0x08, 0xfb, 0x88, 0x9e, 0xb3, 0x91, 0xef, 0x99, 0x73, 0x46, 0xe8, 0x32,
	0x82, 0xdb, 0xf8, 0xcc, 0x48, 0xb2, 0xf7, 0x45, 0x30, 0x7d, 0x20, 0xfd,
	0x36, 0x17, 0x8c, 0x21, 0x32, 0x56, 0x2d, 0xa5, 0xd6, 0x6b, 0x23, 0xbc,
	0x5d, 0xe3, 0xa5, 0x59, 0x15, 0xd5, 0x9c, 0x81, 0xa4, 0xd9, 0x6e, 0x96,
	0x75, 0x8a, 0x18, 0x31, 0x0f, 0x8a, 0xaa, 0x2c, 0x50, 0x34, 0xfa, 0x30,
	0x82, 0xdf, 0xba, 0x6b, 0x50, 0x52, 0x29, 0xb5, 0x2d, 0xcf, 0xe9, 0x54,
	0x14, 0x0a, 0x01, 0x00, 0x00, 0x00, 0x56, 0x50, 0x38, 0x20, 0xbe, 0x00,
	0x00, 0x00, 0x90, 0x02, 0x00, 0x9d, 0x01, 0x2a, 0x10, 0x00, 0x10, 0x00,
	0x03, 0x00, 0x34, 0x25, 0xb0, 0x02, 0x74, 0x30, 0x4f, 0x08, 0x85, 0x0c,
	0x7c, 0x03, 0x1d, 0x08, 0x2c, 0xfd, 0xe8, 0x00, 0xfe, 0xfd, 0x74, 0xa0,
	0xfd, 0x02, 0x9b, 0x1f, 0x8a, 0xf7, 0x43, 0x7c, 0x9c, 0x37, 0xf6, 0xd2,
	0x0c, 0xaf, 0xd3, 0xff, 0x35, 0x68, 0xe2, 0xee, 0xa7, 0xbd, 0xc9, 0x6f,
	0x1b, 0xf4, 0xaa, 0xc5, 0x63, 0xae, 0xba, 0x9f, 0x97, 0x84, 0xdf, 0x41,
	0xa2, 0x3b, 0xda, 0x5b, 0xe4, 0xef, 0xf8, 0xcb, 0xf1, 0xbd, 0x7f, 0xe1,
	0xaf, 0xfa, 0x3f, 0xe5, 0x09, 0xec, 0xf4, 0xbb, 0x66, 0x5f, 0xff, 0xaa,
	0x29, 0xd9, 0x7f, 0xc9, 0x6c, 0xe7, 0x86, 0xe6, 0xac, 0x97, 0xb9, 0xe4,
	0xc6, 0xf4, 0x93, 0x23, 0x8c, 0x5f, 0xdd, 0x8f, 0x39, 0x55, 0x20, 0x7f,
	0x95, 0x4f, 0xfc, 0x39, 0xf8, 0xff, 0x6f, 0xd2, 0x6b, 0x03, 0xe8, 0x9f,
	0xbc, 0x83, 0x98, 0x66, 0x6d, 0xb1, 0xd5, 0x13, 0xff, 0x76, 0x17, 0xe6,
	0xb1, 0xfe, 0x5d, 0x8a, 0xe4, 0x9f, 0x47, 0xbf, 0xb3, 0xfa, 0xbf, 0xfe,
	0x1d, 0x1d, 0xf3, 0x12, 0x8f, 0xfe, 0x5c, 0xcf, 0xc1, 0xfa, 0xf9, 0x18,
	0xc3, 0xbd, 0xcf, 0xcf, 0x1f, 0x91, 0x39, 0xa0, 0x01, 0xfd, 0x9a, 0x01,
	0x4b, 0x31, 0x2c, 0xde, 0xbc, 0xd9, 0x7b, 0xaa, 0xac, 0x00, 0x00, 0x00,
}

func TestProcessJPEGPhoto(t *testing.T) {
	result, err := Process(bytes.NewReader(jpegPhoto(t, 100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPNGConvertedToJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(pngPhoto(t, 100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", result.MIME)
	}
	if _, format, err := image.Decode(bytes.NewReader(result.Data)); err != nil || format != "jpeg" {
		t.Errorf("result should decode as jpeg, got %q (%v)", format, err)
	}
}

func TestProcessWebPConvertedToJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(webpPhoto))
	if err != nil {
		t.Fatalf("Process WebP: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}

	img, format, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("result should decode as jpeg, got %q", format)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 16 || bounds.Dy() != 16 {
		t.Errorf("expected 16x16, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessDownscalesLargePhoto(t *testing.T) {
	result, err := Process(bytes.NewReader(jpegPhoto(t, 2048, 1536)))
	if err != nil {
		t.Fatalf("Process large photo: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		t.Errorf("expected max %dx%d, got %dx%d", MaxDimension, MaxDimension, bounds.Dx(), bounds.Dy())
	}
	// Aspect ratio 4:3 must survive the downscale.
	if bounds.Dx() != MaxDimension || bounds.Dy() != MaxDimension*3/4 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension*3/4, bounds.Dx(), bounds.Dy())
	}
}

func TestProcessKeepsSmallPhotoSize(t *testing.T) {
	result, err := Process(bytes.NewReader(jpegPhoto(t, 50, 50)))
	if err != nil {
		t.Fatalf("Process small photo: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small photo should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestProcessRejectsGIF(t *testing.T) {
	// GIF magic bytes.
	_, err := Process(bytes.NewReader([]byte("GIF89a...")))
	if err == nil {
		t.Error("expected error for GIF")
	}
}

func TestProcessRejectsRIFFNonWebP(t *testing.T) {
	// A RIFF container that is not WebP (WAVE audio header) must not
	// slip past the sniffer on the RIFF prefix alone.
	wave := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	wave = append(wave, []byte("WAVEfmt ")...)
	wave = append(wave, make([]byte, 32)...)
	_, err := Process(bytes.NewReader(wave))
	if err == nil {
		t.Error("expected error for RIFF audio")
	}
}
