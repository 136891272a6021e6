package heif

/*
#cgo pkg-config: libheif
#include <libheif/heif.h>
*/
import "C"

import "fmt"

// ErrorCode is libheif's top-level error category.
type ErrorCode C.enum_heif_error_code

const (
	ErrorOK                       ErrorCode = C.heif_error_Ok
	ErrorInputDoesNotExist        ErrorCode = C.heif_error_Input_does_not_exist
	ErrorInvalidInput             ErrorCode = C.heif_error_Invalid_input
	ErrorUnsupportedFiletype      ErrorCode = C.heif_error_Unsupported_filetype
	ErrorUnsupportedFeature       ErrorCode = C.heif_error_Unsupported_feature
	ErrorUsage                    ErrorCode = C.heif_error_Usage_error
	ErrorMemoryAllocation         ErrorCode = C.heif_error_Memory_allocation_error
	ErrorDecoderPlugin            ErrorCode = C.heif_error_Decoder_plugin_error
	ErrorEncoderPlugin            ErrorCode = C.heif_error_Encoder_plugin_error
	ErrorEncoding                 ErrorCode = C.heif_error_Encoding_error
	ErrorColorProfileDoesNotExist ErrorCode = C.heif_error_Color_profile_does_not_exist
)

// HeifError carries a non-zero status returned by a native libheif call,
// including the library's own message string. All native failures are
// terminal for the current operation; no retry is attempted.
type HeifError struct {
	Code    ErrorCode
	Subcode int
	Message string
}

func (e *HeifError) Error() string {
	return e.Message
}

func convertHeifError(cerror C.struct_heif_error) error {
	if ErrorCode(cerror.code) == ErrorOK {
		return nil
	}
	return &HeifError{
		Code:    ErrorCode(cerror.code),
		Subcode: int(cerror.subcode),
		Message: C.GoString(cerror.message),
	}
}

// FormatError reports a source whose bytes do not form a supported HEIF or
// AVIF container, including truncated and empty sources.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "heif: " + e.Reason
}

// IndexError reports an image or thumbnail index outside its valid range.
// It signals a caller contract violation, not an I/O condition.
type IndexError struct {
	Kind  string // "image" or "thumbnail"
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("heif: %s index %d out of range [0,%d)", e.Kind, e.Index, e.Count)
}
