package icc

import (
	"errors"
	"math"
)

// XYZ (D50) to linear sRGB, Bradford-adapted. Folding the D50-to-D65
// adaptation into the matrix keeps the per-pixel work to one multiply.
var xyzD50ToLinearSRGB = [3][3]float64{
	{3.1338561, -1.6168667, -0.4906146},
	{-0.9787684, 1.9161415, 0.0334540},
	{0.0719453, -0.2289914, 1.4052427},
}

func encodeSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

func clampByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}

// ToSRGB converts pix, an interleaved 8-bit raster with the given band
// count, in place from the profile's color space to sRGB. Alpha bands are
// passed through untouched. A raster whose color band count does not match
// the profile's component count fails with ErrComponentMismatch; other
// malformed or unsupported profiles fail with a terminal error.
func ToSRGB(pix []byte, bands int, p *Profile) error {
	colorBands := bands
	if bands == 4 {
		colorBands = 3
	}
	comps := p.Components()
	if comps == 0 || comps != colorBands {
		return ErrComponentMismatch
	}
	switch comps {
	case 1:
		return grayToSRGB(pix, bands, p)
	case 3:
		return rgbToSRGB(pix, bands, p)
	}
	return errors.New("icc: unsupported data color space " + p.ColorSpace)
}

func rgbToSRGB(pix []byte, bands int, p *Profile) error {
	var cols [3][3]float64
	for i, sig := range []string{"rXYZ", "gXYZ", "bXYZ"} {
		col, err := p.xyz(sig)
		if err != nil {
			return err
		}
		cols[i] = col
	}
	var luts [3][256]float64
	for i, sig := range []string{"rTRC", "gTRC", "bTRC"} {
		c, err := p.curveTag(sig)
		if err != nil {
			return err
		}
		for v := 0; v < 256; v++ {
			luts[i][v] = c.apply(float64(v) / 255.0)
		}
	}
	for i := 0; i+bands <= len(pix); i += bands {
		lr := luts[0][pix[i]]
		lg := luts[1][pix[i+1]]
		lb := luts[2][pix[i+2]]
		// Device linear to PCS XYZ: the tag columns form the matrix.
		x := cols[0][0]*lr + cols[1][0]*lg + cols[2][0]*lb
		y := cols[0][1]*lr + cols[1][1]*lg + cols[2][1]*lb
		z := cols[0][2]*lr + cols[1][2]*lg + cols[2][2]*lb
		for b := 0; b < 3; b++ {
			m := xyzD50ToLinearSRGB[b]
			pix[i+b] = clampByte(encodeSRGB(m[0]*x + m[1]*y + m[2]*z))
		}
	}
	return nil
}

func grayToSRGB(pix []byte, bands int, p *Profile) error {
	c, err := p.curveTag("kTRC")
	if err != nil {
		return err
	}
	var lut [256]byte
	for v := 0; v < 256; v++ {
		lut[v] = clampByte(encodeSRGB(c.apply(float64(v) / 255.0)))
	}
	for i := 0; i < len(pix); i += bands {
		pix[i] = lut[pix[i]]
	}
	return nil
}
