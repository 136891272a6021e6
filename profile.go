package heif

/*
#cgo pkg-config: libheif
#include <libheif/heif.h>
*/
import "C"

import (
	"errors"
	"fmt"

	"github.com/imagista/go-heif/internal/icc"
)

// ProfileKind discriminates the variants of a ColorProfile.
type ProfileKind int

const (
	ProfileNone ProfileKind = iota
	ProfileICC
	ProfileNCLX
)

// NCLX is a coded (non-ICC) color description: primaries, transfer
// function, matrix coefficients and range flag.
type NCLX struct {
	Primaries int
	Transfer  int
	Matrix    int
	FullRange bool
}

// ColorProfile is the tagged color description attached to a decode result
// or an encode input: an ICC blob, a coded NCLX tuple, or nothing.
type ColorProfile struct {
	Kind ProfileKind
	ICC  []byte
	NCLX *NCLX
}

// readColorProfile extracts the embedded profile of handle, preferring a
// raw ICC blob over a coded description.
func readColorProfile(s *session, handle *C.struct_heif_image_handle) (ColorProfile, error) {
	size := int(C.heif_image_handle_get_raw_color_profile_size(handle))
	if size > 0 {
		buf := s.arena.alloc(size)
		err := convertHeifError(C.heif_image_handle_get_raw_color_profile(handle, buf))
		if err != nil {
			return ColorProfile{}, err
		}
		return ColorProfile{
			Kind: ProfileICC,
			ICC:  C.GoBytes(buf, C.int(size)),
		}, nil
	}

	var nclx *C.struct_heif_color_profile_nclx
	err := convertHeifError(C.heif_image_handle_get_nclx_color_profile(handle, &nclx))
	if err != nil {
		var herr *HeifError
		if errors.As(err, &herr) && herr.Code == ErrorColorProfileDoesNotExist {
			return ColorProfile{Kind: ProfileNone}, nil
		}
		return ColorProfile{}, err
	}
	defer C.heif_nclx_color_profile_free(nclx)
	return ColorProfile{
		Kind: ProfileNCLX,
		NCLX: &NCLX{
			Primaries: int(nclx.color_primaries),
			Transfer:  int(nclx.transfer_characteristics),
			Matrix:    int(nclx.matrix_coefficients),
			FullRange: nclx.full_range_flag != 0,
		},
	}, nil
}

// applyColorProfile converts r to the sRGB working space when the source
// embedded a usable ICC profile. One mismatch is benign: a profile whose
// component count does not fit the raster's band count is skipped and the
// unconverted raster kept. Every other conversion failure is terminal.
func applyColorProfile(r *Raster, cp ColorProfile) error {
	r.Profile = cp
	if cp.Kind != ProfileICC || len(cp.ICC) == 0 {
		return nil
	}
	p, err := icc.Parse(cp.ICC)
	if err != nil {
		return fmt.Errorf("heif: parsing embedded ICC profile: %w", err)
	}
	if err := icc.ToSRGB(r.Pix, r.Bands, p); err != nil {
		if errors.Is(err, icc.ErrComponentMismatch) {
			return nil
		}
		return fmt.Errorf("heif: converting to sRGB: %w", err)
	}
	return nil
}

// nclxFieldsFromImage copies the coded profile of a freshly created native
// image into dst; used for monochrome lossless encodes.
func nclxFieldsFromImage(img *C.struct_heif_image, dst *C.struct_heif_color_profile_nclx) error {
	var in *C.struct_heif_color_profile_nclx
	if err := convertHeifError(C.heif_image_get_nclx_color_profile(img, &in)); err != nil {
		return err
	}
	dst.color_primaries = in.color_primaries
	dst.transfer_characteristics = in.transfer_characteristics
	dst.matrix_coefficients = in.matrix_coefficients
	dst.full_range_flag = in.full_range_flag
	C.heif_nclx_color_profile_free(in)
	return nil
}
