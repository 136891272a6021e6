package icc

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func s15f16Bytes(v float64) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(int32(math.Round(v*65536))))
	return b
}

func xyzTag(x, y, z float64) []byte {
	t := []byte("XYZ \x00\x00\x00\x00")
	t = append(t, s15f16Bytes(x)...)
	t = append(t, s15f16Bytes(y)...)
	t = append(t, s15f16Bytes(z)...)
	return t
}

func identityCurvTag() []byte {
	return []byte("curv\x00\x00\x00\x00\x00\x00\x00\x00")
}

// srgbParaTag encodes the sRGB transfer function as a type-3 parametric
// curve: g, a, b, c, d.
func srgbParaTag() []byte {
	t := []byte("para\x00\x00\x00\x00\x00\x03\x00\x00")
	for _, v := range []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045} {
		t = append(t, s15f16Bytes(v)...)
	}
	return t
}

// buildProfile assembles a minimal but well-formed profile from a color
// space signature and tag payloads.
func buildProfile(colorSpace string, tags map[string][]byte) []byte {
	sigs := make([]string, 0, len(tags))
	for sig := range tags {
		sigs = append(sigs, sig)
	}
	data := make([]byte, headerLen)
	copy(data[12:16], "mntr")
	copy(data[16:20], colorSpace)
	copy(data[20:24], "XYZ ")
	copy(data[36:40], "acsp")

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(sigs)))
	data = append(data, count[:]...)

	table := make([]byte, 12*len(sigs))
	off := headerLen + 4 + len(table)
	var body []byte
	for i, sig := range sigs {
		rec := table[i*12:]
		copy(rec, sig)
		binary.BigEndian.PutUint32(rec[4:8], uint32(off))
		binary.BigEndian.PutUint32(rec[8:12], uint32(len(tags[sig])))
		body = append(body, tags[sig]...)
		off += len(tags[sig])
	}
	data = append(data, table...)
	data = append(data, body...)
	binary.BigEndian.PutUint32(data[0:4], uint32(len(data)))
	return data
}

func TestParseRejectsTruncated(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected error for empty profile")
	}
	if _, err := Parse(make([]byte, 64)); err == nil {
		t.Fatal("expected error for short profile")
	}
}

func TestParseRejectsBadSignature(t *testing.T) {
	data := buildProfile("RGB ", nil)
	copy(data[36:40], "nope")
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for missing acsp signature")
	}
}

func TestParseHeaderFields(t *testing.T) {
	p, err := Parse(buildProfile("GRAY", map[string][]byte{"kTRC": identityCurvTag()}))
	if err != nil {
		t.Fatal(err)
	}
	if p.ColorSpace != "GRAY" || p.PCS != "XYZ " || p.Class != "mntr" {
		t.Errorf("header fields = %q %q %q", p.ColorSpace, p.PCS, p.Class)
	}
	if p.Components() != 1 {
		t.Errorf("Components() = %d, want 1", p.Components())
	}
	if p.Tag("kTRC") == nil {
		t.Error("kTRC tag not indexed")
	}
}

func TestToSRGBComponentMismatch(t *testing.T) {
	rgb, err := Parse(buildProfile("RGB ", nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := ToSRGB(make([]byte, 16), 1, rgb); !errors.Is(err, ErrComponentMismatch) {
		t.Errorf("RGB profile on 1-band raster: err = %v", err)
	}
	gray, err := Parse(buildProfile("GRAY", nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := ToSRGB(make([]byte, 12), 3, gray); !errors.Is(err, ErrComponentMismatch) {
		t.Errorf("GRAY profile on 3-band raster: err = %v", err)
	}
}

func TestGrayCurveEndpointsAndMonotonic(t *testing.T) {
	p, err := Parse(buildProfile("GRAY", map[string][]byte{"kTRC": identityCurvTag()}))
	if err != nil {
		t.Fatal(err)
	}
	pix := make([]byte, 256)
	for i := range pix {
		pix[i] = byte(i)
	}
	if err := ToSRGB(pix, 1, p); err != nil {
		t.Fatal(err)
	}
	if pix[0] != 0 || pix[255] != 255 {
		t.Errorf("endpoints = %d, %d; want 0, 255", pix[0], pix[255])
	}
	for i := 1; i < 256; i++ {
		if pix[i] < pix[i-1] {
			t.Fatalf("curve not monotonic at %d: %d < %d", i, pix[i], pix[i-1])
		}
	}
}

func TestRGBSRGBProfileIsNearIdentity(t *testing.T) {
	// sRGB primaries adapted to D50; converting an sRGB-tagged raster to
	// sRGB has to leave the samples in place up to rounding.
	tags := map[string][]byte{
		"rXYZ": xyzTag(0.4360747, 0.2225045, 0.0139322),
		"gXYZ": xyzTag(0.3850649, 0.7168786, 0.0971045),
		"bXYZ": xyzTag(0.1430804, 0.0606169, 0.7141733),
		"rTRC": srgbParaTag(),
		"gTRC": srgbParaTag(),
		"bTRC": srgbParaTag(),
	}
	p, err := Parse(buildProfile("RGB ", tags))
	if err != nil {
		t.Fatal(err)
	}
	pix := []byte{
		0, 0, 0, 0xff,
		255, 255, 255, 0xff,
		200, 30, 90, 0xff,
		17, 230, 64, 0xff,
	}
	want := append([]byte(nil), pix...)
	if err := ToSRGB(pix, 4, p); err != nil {
		t.Fatal(err)
	}
	for i, got := range pix {
		diff := int(got) - int(want[i])
		if diff < -2 || diff > 2 {
			t.Errorf("sample %d: got %d, want %d±2", i, got, want[i])
		}
	}
}

func TestCurveGammaTag(t *testing.T) {
	// curv with a single u8Fixed8 entry is a pure gamma value.
	tag := []byte("curv\x00\x00\x00\x00\x00\x00\x00\x01\x02\x33") // 2.199...
	p, err := Parse(buildProfile("GRAY", map[string][]byte{"kTRC": tag}))
	if err != nil {
		t.Fatal(err)
	}
	c, err := p.curveTag("kTRC")
	if err != nil {
		t.Fatal(err)
	}
	got := c.apply(0.5)
	want := math.Pow(0.5, float64(0x0233)/256.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("gamma apply(0.5) = %v, want %v", got, want)
	}
}
