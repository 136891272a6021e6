package heif

import (
	"bytes"
	"io"
	"testing"
)

func magicFor(brand string) []byte {
	return append([]byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p'}, brand...)
}

func TestFormatFromMagic(t *testing.T) {
	tests := []struct {
		name  string
		magic []byte
		want  Format
	}{
		{"avif", magicFor("avif"), FormatAVIF},
		{"heic", magicFor("heic"), FormatHEIF},
		{"heix", magicFor("heix"), FormatHEIF},
		{"mif1", magicFor("mif1"), FormatHEIF},
		{"unknown brand", magicFor("mp42"), FormatUnknown},
		{"no ftyp", []byte("notaboxatallx"), FormatUnknown},
		{"short", []byte{0, 0, 0, 0x18, 'f', 't'}, FormatUnknown},
		{"empty", nil, FormatUnknown},
	}
	for _, tt := range tests {
		if got := formatFromMagic(tt.magic); got != tt.want {
			t.Errorf("%s: formatFromMagic() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectFormatShortSource(t *testing.T) {
	f, err := DetectFormat(bytes.NewReader([]byte("ftyp")))
	if err != nil {
		t.Fatal(err)
	}
	if f != FormatUnknown {
		t.Errorf("DetectFormat(short) = %v, want FormatUnknown", f)
	}
	f, err = DetectFormat(bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if f != FormatUnknown {
		t.Errorf("DetectFormat(empty) = %v, want FormatUnknown", f)
	}
}

func TestSniffFormatRewinds(t *testing.T) {
	src := bytes.NewReader(append(magicFor("avif"), make([]byte, 32)...))
	if _, err := src.Seek(7, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	f, err := sniffFormat(src)
	if err != nil {
		t.Fatal(err)
	}
	if f != FormatAVIF {
		t.Errorf("sniffFormat() = %v, want FormatAVIF", f)
	}
	pos, _ := src.Seek(0, io.SeekCurrent)
	if pos != 0 {
		t.Errorf("source position after sniff = %d, want 0", pos)
	}
}

func TestFormatString(t *testing.T) {
	if FormatHEIF.String() != "HEIF" || FormatAVIF.String() != "AVIF" || FormatUnknown.String() != "unknown" {
		t.Errorf("Format strings = %q %q %q", FormatHEIF, FormatAVIF, FormatUnknown)
	}
}
