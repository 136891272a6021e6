// Package heif decodes and encodes HEIF and AVIF container images by
// driving libheif through cgo.
//
// The package exposes two levels of API. Decoder and Encode work on whole
// containers: a Decoder lazily resolves the top-level images and thumbnails
// of a source and hands out padding-free Rasters; Encode compresses a Go
// image into a HEIF or AVIF bitstream written to any io.Writer. On top of
// that, the package registers itself with the standard image package, so
// image.Decode and image.DecodeConfig work on .heic/.avif sources out of
// the box.
//
// All native I/O goes through libheif's pull-based reader and push-based
// writer callbacks; see Source for the contract a caller-supplied input
// has to fulfill.
package heif

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <libheif/heif.h>
*/
import "C"

import (
	"bytes"
	"image"
	"io"
)

// Version returns the version string of the linked libheif.
func Version() string {
	return C.GoString(C.heif_get_version())
}

func decodeImage(r io.Reader) (image.Image, error) {
	d, err := newDecoderFromReader(r)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Decode(0)
}

func decodeConfig(r io.Reader) (image.Config, error) {
	var config image.Config
	d, err := newDecoderFromReader(r)
	if err != nil {
		return config, err
	}
	defer d.Close()
	w, h, err := d.Size(0)
	if err != nil {
		return config, err
	}
	raster := Raster{Bands: 4}
	config = image.Config{
		ColorModel: raster.ColorModel(),
		Width:      w,
		Height:     h,
	}
	return config, nil
}

// newDecoderFromReader adapts a plain io.Reader for the registered-format
// entry points, which cannot assume seekability.
func newDecoderFromReader(r io.Reader) (*Decoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewDecoder(bytes.NewReader(data))
}

func init() {
	image.RegisterFormat("heif", "????ftypheic", decodeImage, decodeConfig)
	image.RegisterFormat("heif", "????ftypheix", decodeImage, decodeConfig)
	image.RegisterFormat("heif", "????ftypmif1", decodeImage, decodeConfig)
	image.RegisterFormat("avif", "????ftypavif", decodeImage, decodeConfig)
}
