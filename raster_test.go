package heif

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestRasterFromPlaneAdoptsPaddingFreePlane(t *testing.T) {
	plane := make([]byte, 4*2*3)
	for i := range plane {
		plane[i] = byte(i)
	}
	r, err := rasterFromPlane(plane, 4*3, 4, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if &r.Pix[0] != &plane[0] {
		t.Error("padding-free plane was copied instead of adopted")
	}
	if r.Width != 4 || r.Height != 2 || r.Bands != 3 {
		t.Errorf("geometry = %dx%dx%d", r.Width, r.Height, r.Bands)
	}
}

func TestRasterFromPlaneRepacksPaddedRows(t *testing.T) {
	const stride, width, height = 16, 3, 2
	plane := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for i := 0; i < width*4; i++ {
			plane[y*stride+i] = byte(y*100 + i)
		}
	}
	r, err := rasterFromPlane(plane, stride, width, height, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Pix) != width*height*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(r.Pix), width*height*4)
	}
	for y := 0; y < height; y++ {
		for i := 0; i < width*4; i++ {
			if got, want := r.Pix[y*width*4+i], byte(y*100+i); got != want {
				t.Fatalf("row %d byte %d = %d, want %d", y, i, got, want)
			}
		}
	}
}

func TestRasterFromPlaneRejectsBadGeometry(t *testing.T) {
	if _, err := rasterFromPlane(make([]byte, 8), 2, 4, 1, 3); err == nil {
		t.Error("stride shorter than row accepted")
	}
	if _, err := rasterFromPlane(make([]byte, 8), 12, 4, 2, 3); err == nil {
		t.Error("plane shorter than geometry accepted")
	}
}

func TestRasterAt(t *testing.T) {
	gray := &Raster{Pix: []byte{7, 8}, Width: 2, Height: 1, Bands: 1}
	if c := gray.At(1, 0).(color.Gray); c.Y != 8 {
		t.Errorf("gray At = %v", c)
	}
	rgb := &Raster{Pix: []byte{1, 2, 3, 4, 5, 6}, Width: 2, Height: 1, Bands: 3}
	if c := rgb.At(1, 0).(color.NRGBA); c != (color.NRGBA{R: 4, G: 5, B: 6, A: 0xff}) {
		t.Errorf("rgb At = %v", c)
	}
	rgba := &Raster{Pix: []byte{1, 2, 3, 4}, Width: 1, Height: 1, Bands: 4}
	if c := rgba.At(0, 0).(color.NRGBA); c != (color.NRGBA{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("rgba At = %v", c)
	}
	if gray.ColorModel() != color.GrayModel || rgb.ColorModel() != color.NRGBAModel {
		t.Error("unexpected color models")
	}
}

func TestImageLayout(t *testing.T) {
	tests := []struct {
		img   image.Image
		bands int
		alpha bool
	}{
		{image.NewGray(image.Rect(0, 0, 2, 2)), 1, false},
		{image.NewNRGBA(image.Rect(0, 0, 2, 2)), 4, true},
		{image.NewRGBA64(image.Rect(0, 0, 2, 2)), 4, true},
		{image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420), 3, false},
		{NewRaster(2, 2, 3), 3, false},
		{NewRaster(2, 2, 4), 4, true},
	}
	for _, tt := range tests {
		bands, alpha := imageLayout(tt.img)
		if bands != tt.bands || alpha != tt.alpha {
			t.Errorf("imageLayout(%T) = %d, %v; want %d, %v", tt.img, bands, alpha, tt.bands, tt.alpha)
		}
	}
}

func TestFillPlaneGrayFastPath(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range gray.Pix {
		gray.Pix[i] = byte(i * 11)
	}
	plane := make([]byte, 8)
	fillPlane(plane, 4, gray, 1)
	if !bytes.Equal(plane, gray.Pix) {
		t.Errorf("plane = %v, want %v", plane, gray.Pix)
	}
}

func TestFillPlaneHonorsStride(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	img.SetNRGBA(1, 1, color.NRGBA{R: 50, G: 60, B: 70, A: 80})
	const stride = 12 // 2*4 samples plus padding
	plane := make([]byte, stride*2)
	fillPlane(plane, stride, img, 4)
	if got := plane[0:4]; !bytes.Equal(got, []byte{10, 20, 30, 40}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	if got := plane[stride+4 : stride+8]; !bytes.Equal(got, []byte{50, 60, 70, 80}) {
		t.Errorf("pixel (1,1) = %v", got)
	}
}

func TestPlanePackRoundTrip(t *testing.T) {
	for _, bands := range []int{1, 3, 4} {
		src := NewRaster(5, 4, bands)
		for i := range src.Pix {
			src.Pix[i] = byte(i * 7)
		}
		rowLen := src.Width * bands
		plane := make([]byte, src.Height*rowLen)
		fillPlane(plane, rowLen, src, bands)
		got, err := rasterFromPlane(plane, rowLen, src.Width, src.Height, bands)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got.Pix, src.Pix) {
			t.Errorf("bands %d: samples changed across pack round trip", bands)
		}
	}
}

func TestFillPlaneFromRaster(t *testing.T) {
	r := NewRaster(2, 2, 3)
	for i := range r.Pix {
		r.Pix[i] = byte(i + 1)
	}
	const stride = 8
	plane := make([]byte, stride*2)
	fillPlane(plane, stride, r, 3)
	if !bytes.Equal(plane[0:6], r.Pix[0:6]) || !bytes.Equal(plane[stride:stride+6], r.Pix[6:12]) {
		t.Errorf("plane = %v", plane)
	}
}
