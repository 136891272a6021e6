package heif

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <libheif/heif.h>
*/
import "C"

import (
	"image"
	"io"
	"strings"
	"unsafe"
)

// Options controls one encode.
type Options struct {
	// Format selects the container and codec family: FormatHEIF encodes
	// HEVC, FormatAVIF encodes AV1.
	Format Format

	// Lossless requests mathematically lossless coding. Quality is
	// ignored when set.
	Lossless bool

	// Quality is the lossy quality, 0 (worst) to 100 (best). Values
	// above 90 disable chroma subsampling.
	Quality int

	// Speed is the effort/speed tradeoff for AV1 encoders, 0 (slowest)
	// to 9 (fastest).
	Speed int

	// Preset is the effort preset for x265-based HEVC encoders, e.g.
	// "fast" or "slow".
	Preset string

	// XMP, when non-empty, is attached to the encoded image as a raw
	// XMP packet.
	XMP []byte
}

// DefaultOptions returns the options Encode uses when passed nil.
func DefaultOptions() *Options {
	return &Options{
		Format:  FormatAVIF,
		Quality: 60,
		Speed:   7,
		Preset:  "fast",
	}
}

// Encode compresses img and writes the finished container to w. Grayscale
// sources encode as a single luma plane; sources with alpha keep their
// alpha channel. Passing nil options encodes AVIF at the defaults.
func Encode(w io.Writer, img image.Image, o *Options) error {
	if o == nil {
		o = DefaultOptions()
	}
	var comp C.enum_heif_compression_format
	switch o.Format {
	case FormatHEIF:
		comp = C.heif_compression_HEVC
	case FormatAVIF:
		comp = C.heif_compression_AV1
	default:
		return &FormatError{Reason: "no encode target format selected"}
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()
	s.sink = w

	bands, hasAlpha := imageLayout(img)
	cs := C.enum_heif_colorspace(C.heif_colorspace_RGB)
	ch := C.enum_heif_chroma(C.heif_chroma_interleaved_RGB)
	plane := C.enum_heif_channel(C.heif_channel_interleaved)
	switch {
	case bands == 1:
		cs = C.heif_colorspace_monochrome
		ch = C.heif_chroma_monochrome
		plane = C.heif_channel_Y
	case hasAlpha:
		ch = C.heif_chroma_interleaved_RGBA
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	var cimg *C.struct_heif_image
	if err := convertHeifError(C.heif_image_create(C.int(width), C.int(height), cs, ch, &cimg)); err != nil {
		return err
	}
	defer C.heif_image_release(cimg)
	if err := convertHeifError(C.heif_image_add_plane(cimg, plane, C.int(width), C.int(height), 8)); err != nil {
		return err
	}
	var stride C.int
	dst := C.heif_image_get_plane(cimg, plane, &stride)
	if dst == nil {
		return &HeifError{Code: ErrorMemoryAllocation, Message: "native image has no plane to fill"}
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(dst)), int(stride)*height)
	fillPlane(buf, int(stride), img, bands)

	var enc *C.struct_heif_encoder
	if err := convertHeifError(C.heif_context_get_encoder_for_format(s.ctx, comp, &enc)); err != nil {
		return err
	}
	defer C.heif_encoder_release(enc)

	quality := o.Quality
	if quality < 0 {
		quality = 0
	} else if quality > 100 {
		quality = 100
	}
	if err := convertHeifError(C.heif_encoder_set_lossy_quality(enc, C.int(quality))); err != nil {
		return err
	}
	lossless := C.int(0)
	if o.Lossless {
		lossless = 1
	}
	if err := convertHeifError(C.heif_encoder_set_lossless(enc, lossless)); err != nil {
		return err
	}
	// x265 tunes effort through a named preset, the AV1 encoders through a
	// numeric speed parameter.
	if strings.Contains(C.GoString(C.heif_encoder_get_name(enc)), "x265") {
		if o.Preset != "" {
			if err := encoderSetString(s, enc, "preset", o.Preset); err != nil {
				return err
			}
		}
	} else {
		if err := encoderSetInt(s, enc, "speed", o.Speed); err != nil {
			return err
		}
	}

	opts := C.heif_encoding_options_alloc()
	if opts == nil {
		return &HeifError{Code: ErrorMemoryAllocation, Message: "could not allocate encoding options"}
	}
	defer C.heif_encoding_options_free(opts)
	if hasAlpha {
		opts.save_alpha_channel = 1
	}

	if o.Lossless {
		// Lossless needs full chroma plus a coded profile that keeps the
		// samples out of any lossy matrix: RGB inputs stay in GBR order,
		// monochrome inputs reuse the profile of the staged image.
		if err := encoderSetString(s, enc, "chroma", "444"); err != nil {
			return err
		}
		nclx := C.heif_nclx_color_profile_alloc()
		if nclx != nil {
			defer C.heif_nclx_color_profile_free(nclx)
			use := true
			if bands == 1 {
				if err := nclxFieldsFromImage(cimg, nclx); err != nil {
					use = false
				}
			} else {
				nclx.matrix_coefficients = C.heif_matrix_coefficients_RGB_GBR
				nclx.full_range_flag = 1
			}
			if use {
				opts.output_nclx_profile = nclx
			}
		}
	} else if quality > 90 {
		if err := encoderSetString(s, enc, "chroma", "444"); err != nil {
			return err
		}
	}

	var handle *C.struct_heif_image_handle
	if err := convertHeifError(C.heif_context_encode_image(s.ctx, cimg, enc, opts, &handle)); err != nil {
		return err
	}
	defer C.heif_image_handle_release(handle)

	if len(o.XMP) > 0 {
		xmp := s.arena.alloc(len(o.XMP))
		copy(unsafe.Slice((*byte)(xmp), len(o.XMP)), o.XMP)
		if err := convertHeifError(C.heif_context_add_XMP_metadata(s.ctx, handle, xmp, C.int(len(o.XMP)))); err != nil {
			return err
		}
	}

	return writeContainer(s)
}

func encoderSetString(s *session, enc *C.struct_heif_encoder, name, value string) error {
	return convertHeifError(C.heif_encoder_set_parameter_string(enc, s.arena.cstring(name), s.arena.cstring(value)))
}

func encoderSetInt(s *session, enc *C.struct_heif_encoder, name string, value int) error {
	return convertHeifError(C.heif_encoder_set_parameter_integer(enc, s.arena.cstring(name), C.int(value)))
}
