// Package icc parses embedded ICC color profiles and converts 8-bit
// interleaved rasters from the profile's color space to sRGB. It supports
// the matrix/TRC profile shape used by essentially all camera and display
// profiles embedded in HEIF/AVIF images (sRGB, Display P3, Adobe RGB and
// friends) plus single-channel grayscale profiles.
package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrComponentMismatch reports that the raster's color band count does
	// not match the profile's component count. Callers may treat it as a
	// benign condition and keep the unconverted raster.
	ErrComponentMismatch = errors.New("icc: raster band count does not match profile components")

	errTruncated = errors.New("icc: truncated profile")
)

const headerLen = 128

// Profile is a parsed ICC profile: the header fields the transform needs
// plus the raw tag table.
type Profile struct {
	ColorSpace string // data color space signature, e.g. "RGB ", "GRAY"
	PCS        string // profile connection space, "XYZ " or "Lab "
	Class      string // profile/device class, e.g. "mntr", "scnr"

	raw  []byte
	tags map[string][]byte
}

// Parse decodes the profile header and tag table of data.
func Parse(data []byte) (*Profile, error) {
	if len(data) < headerLen+4 {
		return nil, errTruncated
	}
	size := binary.BigEndian.Uint32(data[0:4])
	if int(size) > len(data) {
		return nil, errTruncated
	}
	if string(data[36:40]) != "acsp" {
		return nil, errors.New("icc: missing acsp signature")
	}
	p := &Profile{
		Class:      string(data[12:16]),
		ColorSpace: string(data[16:20]),
		PCS:        string(data[20:24]),
		raw:        data,
		tags:       make(map[string][]byte),
	}
	count := int(binary.BigEndian.Uint32(data[headerLen : headerLen+4]))
	if count < 0 || count > 1024 {
		return nil, fmt.Errorf("icc: implausible tag count %d", count)
	}
	table := data[headerLen+4:]
	if len(table) < count*12 {
		return nil, errTruncated
	}
	for i := 0; i < count; i++ {
		rec := table[i*12 : i*12+12]
		sig := string(rec[0:4])
		off := binary.BigEndian.Uint32(rec[4:8])
		n := binary.BigEndian.Uint32(rec[8:12])
		if int(off)+int(n) > len(data) {
			return nil, errTruncated
		}
		if _, dup := p.tags[sig]; !dup {
			p.tags[sig] = data[off : off+n]
		}
	}
	return p, nil
}

// Components returns the number of color components of the profile's data
// color space, or 0 when the space is not recognized.
func (p *Profile) Components() int {
	switch p.ColorSpace {
	case "GRAY":
		return 1
	case "RGB ":
		return 3
	case "CMYK":
		return 4
	}
	return 0
}

// Tag returns the raw data of the named tag, or nil.
func (p *Profile) Tag(sig string) []byte {
	return p.tags[sig]
}

// xyz reads an XYZType tag as a column of the device-to-PCS matrix.
func (p *Profile) xyz(sig string) ([3]float64, error) {
	var col [3]float64
	t := p.tags[sig]
	if len(t) < 20 || string(t[0:4]) != "XYZ " {
		return col, fmt.Errorf("icc: missing or malformed %q tag", sig)
	}
	for i := 0; i < 3; i++ {
		col[i] = s15Fixed16(binary.BigEndian.Uint32(t[8+4*i : 12+4*i]))
	}
	return col, nil
}

func s15Fixed16(v uint32) float64 {
	return float64(int32(v)) / 65536.0
}

// curve is a tone reproduction curve decoded from a curv or para tag; it
// maps an encoded sample in [0,1] to a linear value in [0,1].
type curve struct {
	gamma  float64   // used when table is nil and params is nil
	table  []float64 // sampled curve
	params []float64 // parametricCurveType parameters, g a b c d e f
	kind   int       // parametric function type 0..4
}

func identityCurve() *curve {
	return &curve{gamma: 1}
}

func (p *Profile) curveTag(sig string) (*curve, error) {
	t := p.tags[sig]
	if len(t) < 12 {
		return nil, fmt.Errorf("icc: missing %q curve tag", sig)
	}
	switch string(t[0:4]) {
	case "curv":
		n := int(binary.BigEndian.Uint32(t[8:12]))
		switch {
		case n == 0:
			return identityCurve(), nil
		case n == 1:
			if len(t) < 14 {
				return nil, errTruncated
			}
			// u8Fixed8 gamma value.
			return &curve{gamma: float64(binary.BigEndian.Uint16(t[12:14])) / 256.0}, nil
		default:
			if len(t) < 12+2*n {
				return nil, errTruncated
			}
			table := make([]float64, n)
			for i := range table {
				table[i] = float64(binary.BigEndian.Uint16(t[12+2*i:14+2*i])) / 65535.0
			}
			return &curve{table: table}, nil
		}
	case "para":
		kind := int(binary.BigEndian.Uint16(t[8:10]))
		nParams := []int{1, 3, 4, 5, 7}
		if kind < 0 || kind > 4 || len(t) < 12+4*nParams[kind] {
			return nil, fmt.Errorf("icc: malformed parametric curve in %q", sig)
		}
		params := make([]float64, nParams[kind])
		for i := range params {
			params[i] = s15Fixed16(binary.BigEndian.Uint32(t[12+4*i : 16+4*i]))
		}
		return &curve{params: params, kind: kind}, nil
	}
	return nil, fmt.Errorf("icc: unsupported curve type in %q", sig)
}

func (c *curve) apply(x float64) float64 {
	switch {
	case c.table != nil:
		n := len(c.table)
		if n == 1 {
			return c.table[0]
		}
		pos := x * float64(n-1)
		i := int(pos)
		if i >= n-1 {
			return c.table[n-1]
		}
		frac := pos - float64(i)
		return c.table[i]*(1-frac) + c.table[i+1]*frac
	case c.params != nil:
		return c.applyParametric(x)
	default:
		if c.gamma == 1 {
			return x
		}
		return math.Pow(x, c.gamma)
	}
}

func (c *curve) applyParametric(x float64) float64 {
	p := c.params
	switch c.kind {
	case 0: // Y = X^g
		return math.Pow(x, p[0])
	case 1: // Y = (aX+b)^g for X >= -b/a, else 0
		if a := p[1]; a != 0 && x >= -p[2]/a {
			return math.Pow(a*x+p[2], p[0])
		}
		return 0
	case 2: // Y = (aX+b)^g + c for X >= -b/a, else c
		if a := p[1]; a != 0 && x >= -p[2]/a {
			return math.Pow(a*x+p[2], p[0]) + p[3]
		}
		return p[3]
	case 3: // sRGB-style piecewise
		if x >= p[4] {
			return math.Pow(p[1]*x+p[2], p[0])
		}
		return p[3] * x
	default: // 4: piecewise with additive constants
		if x >= p[4] {
			return math.Pow(p[1]*x+p[2], p[0]) + p[5]
		}
		return p[3]*x + p[6]
	}
}
