package heif

import (
	"fmt"
	"image"
	"image/color"
)

// Raster is a padding-free, interleaved, 8-bit-per-sample pixel buffer.
// Bands is 1 (grayscale), 3 (RGB) or 4 (RGBA); row x of the image starts at
// Pix[x*Width*Bands]. Raster implements image.Image.
type Raster struct {
	Pix    []byte
	Width  int
	Height int
	Bands  int

	// Profile is the color description that was embedded in the source,
	// if any. After a successful conversion to sRGB the samples no longer
	// need it; it is retained for callers that want the original intent.
	Profile ColorProfile
}

// NewRaster allocates a zeroed raster of the given geometry.
func NewRaster(width, height, bands int) *Raster {
	return &Raster{
		Pix:    make([]byte, width*height*bands),
		Width:  width,
		Height: height,
		Bands:  bands,
	}
}

func (r *Raster) ColorModel() color.Model {
	if r.Bands == 1 {
		return color.GrayModel
	}
	return color.NRGBAModel
}

func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

func (r *Raster) At(x, y int) color.Color {
	i := (y*r.Width + x) * r.Bands
	switch r.Bands {
	case 1:
		return color.Gray{Y: r.Pix[i]}
	case 3:
		return color.NRGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: 0xff}
	default:
		return color.NRGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: r.Pix[i+3]}
	}
}

// rasterFromPlane packs a decoded native plane into a Raster. When the
// reported stride carries no padding the plane bytes are adopted directly
// as the raster's storage; otherwise each row is repacked, dropping the
// stride-width*bands trailing bytes. The choice is a runtime branch because
// the stride is only known after the native call returns.
func rasterFromPlane(plane []byte, stride, width, height, bands int) (*Raster, error) {
	rowLen := width * bands
	if stride < rowLen {
		return nil, fmt.Errorf("heif: plane stride %d shorter than row length %d", stride, rowLen)
	}
	if len(plane) < (height-1)*stride+rowLen {
		return nil, fmt.Errorf("heif: plane of %d bytes too short for %dx%dx%d stride %d",
			len(plane), width, height, bands, stride)
	}
	r := &Raster{Width: width, Height: height, Bands: bands}
	if stride == rowLen {
		r.Pix = plane[:height*rowLen]
		return r, nil
	}
	r.Pix = make([]byte, height*rowLen)
	for y := 0; y < height; y++ {
		copy(r.Pix[y*rowLen:(y+1)*rowLen], plane[y*stride:])
	}
	return r, nil
}

// imageLayout reports the native band count and alpha flag to use when
// encoding img: 1 band for grayscale sources, 4 when the color model
// carries alpha, 3 otherwise.
func imageLayout(img image.Image) (bands int, hasAlpha bool) {
	switch img := img.(type) {
	case *image.Gray:
		return 1, false
	case *Raster:
		return img.Bands, img.Bands == 4
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64:
		return 4, true
	default:
		return 3, false
	}
}

// fillPlane copies img's samples into a native plane buffer of the
// codec-reported stride, honoring the destination's own padding. The
// single bulk copy applies only to single-band, byte-sampled, stride-free
// sources; multi-band images go through the per-sample loop because the
// raster's sample order need not match the order the codec expects.
func fillPlane(plane []byte, stride int, img image.Image, bands int) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	if gray, ok := img.(*image.Gray); ok && bands == 1 && gray.Stride == width && stride == width {
		copy(plane, gray.Pix[:width*height])
		return
	}

	if r, ok := img.(*Raster); ok && r.Bands == bands {
		rowLen := width * bands
		for y := 0; y < height; y++ {
			copy(plane[y*stride:y*stride+rowLen], r.Pix[y*rowLen:])
		}
		return
	}

	for y := 0; y < height; y++ {
		i := y * stride
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			switch bands {
			case 1:
				plane[i] = color.GrayModel.Convert(c).(color.Gray).Y
				i++
			case 3:
				plane[i] = c.R
				plane[i+1] = c.G
				plane[i+2] = c.B
				i += 3
			default:
				plane[i] = c.R
				plane[i+1] = c.G
				plane[i+2] = c.B
				plane[i+3] = c.A
				i += 4
			}
		}
	}
}
