package heif

import "io"

// Format identifies the container family of a source.
type Format int

const (
	FormatUnknown Format = iota
	FormatHEIF
	FormatAVIF
)

func (f Format) String() string {
	switch f {
	case FormatHEIF:
		return "HEIF"
	case FormatAVIF:
		return "AVIF"
	}
	return "unknown"
}

const magicLen = 12

// formatFromMagic classifies the first bytes of a source. Bytes 4-7 must be
// the ASCII literal "ftyp"; bytes 8-11 select the brand.
func formatFromMagic(magic []byte) Format {
	if len(magic) < magicLen {
		return FormatUnknown
	}
	if string(magic[4:8]) != "ftyp" {
		return FormatUnknown
	}
	switch string(magic[8:12]) {
	case "avif":
		return FormatAVIF
	case "heic", "heix", "mif1":
		return FormatHEIF
	}
	return FormatUnknown
}

// DetectFormat reads up to 12 bytes from r and reports the container
// family, or FormatUnknown for any other byte pattern or a shorter source.
func DetectFormat(r io.Reader) (Format, error) {
	magic := make([]byte, magicLen)
	n, err := io.ReadFull(r, magic)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return FormatUnknown, nil
	}
	if err != nil {
		return FormatUnknown, err
	}
	return formatFromMagic(magic[:n]), nil
}

func sniffFormat(src Source) (Format, error) {
	if err := seekStart(src); err != nil {
		return FormatUnknown, err
	}
	f, err := DetectFormat(src)
	if err != nil {
		return FormatUnknown, err
	}
	if err := seekStart(src); err != nil {
		return FormatUnknown, err
	}
	return f, nil
}
