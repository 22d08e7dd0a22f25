package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestCropToAspectRatioExactDimensions(t *testing.T) {
	cases := []struct {
		srcW, srcH   int
		target       AspectRatio
		wantW, wantH int
	}{
		{200, 100, AspectRatio{W: 1, H: 1}, 100, 100},
		{100, 200, AspectRatio{W: 1, H: 1}, 100, 100},
		{300, 200, AspectRatio{W: 3, H: 2}, 300, 200},
		{640, 480, AspectRatio{W: 16, H: 9}, 640, 360},
		{101, 100, AspectRatio{W: 1, H: 1}, 100, 100},
	}
	for _, tc := range cases {
		src := encodeTestPNG(t, tc.srcW, tc.srcH, color.White)
		out, err := CropToAspectRatio(src, tc.target)
		if err != nil {
			t.Fatalf("CropToAspectRatio(%dx%d, %v) error: %v", tc.srcW, tc.srcH, tc.target, err)
		}
		w, h, err := DecodeConfig(out)
		if err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if w != tc.wantW || h != tc.wantH {
			t.Fatalf("crop %dx%d to %v = %dx%d, want %dx%d", tc.srcW, tc.srcH, tc.target, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestCropToAspectRatioIsCentered(t *testing.T) {
	// Source: 200x100 with a white band in the horizontal center third and
	// black flanks. A centered 1:1 crop keeps the band in its own center.
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if x >= 67 && x < 133 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source: %v", err)
	}

	out, err := CropToAspectRatio(buf.Bytes(), AspectRatio{W: 1, H: 1})
	if err != nil {
		t.Fatalf("CropToAspectRatio returned error: %v", err)
	}
	cropped, _, err := decode(out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	b := cropped.Bounds()
	if b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("crop = %dx%d, want 100x100", b.Dx(), b.Dy())
	}
	// The crop removed 50px from each side, so the band now spans 17..83.
	r, _, _, _ := cropped.At(50, 50).RGBA()
	if r < 0x7fff {
		t.Fatal("center of crop should be inside the white band")
	}
	r, _, _, _ = cropped.At(5, 50).RGBA()
	if r > 0x7fff {
		t.Fatal("left edge of crop should be outside the white band")
	}
	r, _, _, _ = cropped.At(95, 50).RGBA()
	if r > 0x7fff {
		t.Fatal("right edge of crop should be outside the white band")
	}
}

func TestCropToAspectRatioRejectsBadBytes(t *testing.T) {
	if _, err := CropToAspectRatio([]byte{0x00, 0x01}, AspectRatio{W: 1, H: 1}); err == nil {
		t.Fatal("expected load error for undecodable bytes")
	}
}
