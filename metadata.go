package heif

import (
	"bytes"
	"fmt"

	"github.com/bep/imagemeta"
)

// exifPrefixLen is the fixed header in front of the TIFF stream inside a
// HEIF "Exif" metadata block; it must be discarded before directory
// parsing.
const exifPrefixLen = 10

// Metadata holds the embedded metadata of one top-level image.
type Metadata struct {
	// EXIF maps tag names (e.g. "Orientation", "DateTime") to their
	// decoded values. Nil when the container has no Exif block.
	EXIF map[string]any

	// XMP is the raw XMP packet, nil when absent.
	XMP []byte
}

// parseEXIF decodes the TIFF directory of a stripped Exif payload.
func parseEXIF(payload []byte) (map[string]any, error) {
	tags := make(map[string]any)
	err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(payload),
		ImageFormat: imagemeta.TIFF,
		Sources:     imagemeta.EXIF,
		HandleTag: func(info imagemeta.TagInfo) error {
			tags[info.Tag] = info.Value
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("heif: parsing EXIF directory: %w", err)
	}
	return tags, nil
}

// stripExifPrefix removes the fixed block header from a raw Exif payload.
func stripExifPrefix(payload []byte) ([]byte, error) {
	if len(payload) <= exifPrefixLen {
		return nil, &FormatError{Reason: "Exif block too short"}
	}
	return payload[exifPrefixLen:], nil
}
