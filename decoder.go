package heif

/*
#cgo pkg-config: libheif
#include <libheif/heif.h>
*/
import "C"

import (
	"unsafe"
)

// Decoder reads one HEIF or AVIF container. The forest of top-level images
// and their thumbnails is resolved lazily from native handles: nothing is
// parsed until an operation demands it, and every resolved attribute is
// cached for the decoder's lifetime. A Decoder is not safe for concurrent
// use; open one Decoder per goroutine instead.
type Decoder struct {
	src     Source
	ownsSrc bool

	sess   *session
	format Format
	formatKnown bool

	numImages int
	imageIDs  []C.heif_item_id
	images    map[C.heif_item_id]*imageNode
}

// NewDecoder returns a Decoder reading from a caller-supplied source. The
// source is never closed by the decoder; its length must stay fixed for
// the decoder's lifetime.
func NewDecoder(src Source) (*Decoder, error) {
	return &Decoder{src: src, numImages: -1}, nil
}

// OpenFile returns a Decoder reading from the file at path. The decoder
// owns the underlying file and closes it on Close. A missing file reports
// an error satisfying errors.Is(err, fs.ErrNotExist).
func OpenFile(path string) (*Decoder, error) {
	fs, err := openFileSource(path)
	if err != nil {
		return nil, err
	}
	return &Decoder{src: fs, ownsSrc: true, numImages: -1}, nil
}

// Format inspects the source's magic bytes and reports its container
// family. It does not consume the source.
func (d *Decoder) Format() (Format, error) {
	if !d.formatKnown {
		f, err := sniffFormat(d.src)
		if err != nil {
			return FormatUnknown, err
		}
		d.format = f
		d.formatKnown = true
	}
	return d.format, nil
}

// initContext builds the native index of the container on first use.
func (d *Decoder) initContext() error {
	if d.sess != nil {
		return nil
	}
	f, err := d.Format()
	if err != nil {
		return err
	}
	if f == FormatUnknown {
		return &FormatError{Reason: "source is not a HEIF or AVIF container"}
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	s.src = d.src
	if err := readContainer(s); err != nil {
		s.close()
		return err
	}
	d.sess = s
	d.numImages = int(C.heif_context_get_number_of_top_level_images(s.ctx))
	d.images = make(map[C.heif_item_id]*imageNode, d.numImages)
	if d.numImages > 0 {
		d.imageIDs = make([]C.heif_item_id, d.numImages)
		C.heif_context_get_list_of_top_level_image_IDs(
			s.ctx, &d.imageIDs[0], C.int(d.numImages))
	}
	return nil
}

// NumImages reports the number of top-level images in the container.
func (d *Decoder) NumImages() (int, error) {
	if err := d.initContext(); err != nil {
		return 0, err
	}
	return d.numImages, nil
}

func (d *Decoder) getImage(index int) (*imageNode, error) {
	if err := d.initContext(); err != nil {
		return nil, err
	}
	if index < 0 || index >= d.numImages {
		return nil, &IndexError{Kind: "image", Index: index, Count: d.numImages}
	}
	id := d.imageIDs[index]
	n, ok := d.images[id]
	if !ok {
		n = &imageNode{d: d, id: id, alpha: -1, numThumbs: -1}
		d.images[id] = n
	}
	return n, nil
}

// Size reports the pixel dimensions of the top-level image at index.
func (d *Decoder) Size(index int) (width, height int, err error) {
	n, err := d.getImage(index)
	if err != nil {
		return 0, 0, err
	}
	return n.size()
}

// HasAlpha reports whether the top-level image at index carries an alpha
// channel.
func (d *Decoder) HasAlpha(index int) (bool, error) {
	n, err := d.getImage(index)
	if err != nil {
		return false, err
	}
	return n.hasAlpha()
}

// NumThumbnails reports the number of thumbnails of the image at index.
func (d *Decoder) NumThumbnails(index int) (int, error) {
	n, err := d.getImage(index)
	if err != nil {
		return 0, err
	}
	return n.thumbnailCount()
}

// ThumbnailSize reports the pixel dimensions of one thumbnail.
func (d *Decoder) ThumbnailSize(imageIndex, thumbIndex int) (width, height int, err error) {
	n, err := d.getImage(imageIndex)
	if err != nil {
		return 0, 0, err
	}
	t, err := n.thumbnail(thumbIndex)
	if err != nil {
		return 0, 0, err
	}
	return t.size()
}

// Decode decodes the top-level image at index into a raster, converting to
// sRGB when the image embeds a usable ICC profile.
func (d *Decoder) Decode(index int) (*Raster, error) {
	n, err := d.getImage(index)
	if err != nil {
		return nil, err
	}
	return d.readImage(n)
}

// DecodeThumbnail decodes one thumbnail of the image at imageIndex.
func (d *Decoder) DecodeThumbnail(imageIndex, thumbIndex int) (*Raster, error) {
	n, err := d.getImage(imageIndex)
	if err != nil {
		return nil, err
	}
	t, err := n.thumbnail(thumbIndex)
	if err != nil {
		return nil, err
	}
	return d.readImage(t)
}

// Metadata reads the EXIF directory and raw XMP packet of the image at
// index. Both fields are nil when the container carries no such block.
func (d *Decoder) Metadata(index int) (*Metadata, error) {
	n, err := d.getImage(index)
	if err != nil {
		return nil, err
	}
	exif, err := n.exifTags()
	if err != nil {
		return nil, err
	}
	xmp, err := n.xmpBytes()
	if err != nil {
		return nil, err
	}
	return &Metadata{EXIF: exif, XMP: xmp}, nil
}

// Close releases every native resource of the decoder. Handles are
// released child before parent: thumbnails, then images, then the context,
// then the arena backing them. Closing a decoder that performed no
// operations is a no-op apart from closing an owned file.
func (d *Decoder) Close() error {
	if d.sess != nil {
		for _, n := range d.images {
			n.release()
		}
		d.images = nil
		d.sess.close()
		d.sess = nil
	}
	if d.ownsSrc {
		if c, ok := d.src.(interface{ Close() error }); ok {
			return c.Close()
		}
	}
	return nil
}

// imageNode is one top-level image or thumbnail. All attributes resolve
// lazily against the native handle and stay cached afterwards; within one
// session nothing is resolved twice.
type imageNode struct {
	d      *Decoder
	id     C.heif_item_id
	parent *imageNode // set on thumbnails only, used to resolve the handle

	handle    *C.struct_heif_image_handle
	width     int
	height    int
	sizeKnown bool
	alpha     int8 // -1 unresolved
	numThumbs int  // -1 unresolved
	thumbIDs  []C.heif_item_id
	thumbs    map[C.heif_item_id]*imageNode

	exif      map[string]any
	exifKnown bool
	xmp       []byte
	xmpKnown  bool
}

// resolveHandle acquires the native handle on first use. Thumbnails
// resolve through their parent's handle.
func (n *imageNode) resolveHandle() error {
	if n.handle != nil {
		return nil
	}
	var h *C.struct_heif_image_handle
	if n.parent == nil {
		err := convertHeifError(C.heif_context_get_image_handle(n.d.sess.ctx, n.id, &h))
		if err != nil {
			return err
		}
	} else {
		if err := n.parent.resolveHandle(); err != nil {
			return err
		}
		err := convertHeifError(C.heif_image_handle_get_thumbnail(n.parent.handle, n.id, &h))
		if err != nil {
			return err
		}
	}
	n.handle = h
	return nil
}

func (n *imageNode) size() (int, int, error) {
	if !n.sizeKnown {
		if err := n.resolveHandle(); err != nil {
			return 0, 0, err
		}
		n.width = int(C.heif_image_handle_get_width(n.handle))
		n.height = int(C.heif_image_handle_get_height(n.handle))
		n.sizeKnown = true
	}
	return n.width, n.height, nil
}

func (n *imageNode) hasAlpha() (bool, error) {
	if n.parent != nil {
		return false, nil
	}
	if n.alpha == -1 {
		if err := n.resolveHandle(); err != nil {
			return false, err
		}
		n.alpha = 0
		if C.heif_image_handle_has_alpha_channel(n.handle) != 0 {
			n.alpha = 1
		}
	}
	return n.alpha == 1, nil
}

func (n *imageNode) thumbnailCount() (int, error) {
	if n.numThumbs == -1 {
		if err := n.resolveHandle(); err != nil {
			return 0, err
		}
		n.numThumbs = int(C.heif_image_handle_get_number_of_thumbnails(n.handle))
	}
	return n.numThumbs, nil
}

func (n *imageNode) thumbnail(index int) (*imageNode, error) {
	count, err := n.thumbnailCount()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= count {
		return nil, &IndexError{Kind: "thumbnail", Index: index, Count: count}
	}
	if n.thumbIDs == nil {
		ids := make([]C.heif_item_id, count)
		// The native call may claim more entries than the metadata-reported
		// thumbnail count; the count stays authoritative and surplus
		// entries are ignored.
		C.heif_image_handle_get_list_of_thumbnail_IDs(n.handle, &ids[0], C.int(count))
		n.thumbIDs = ids
		n.thumbs = make(map[C.heif_item_id]*imageNode, count)
		for _, id := range ids {
			n.thumbs[id] = &imageNode{d: n.d, id: id, parent: n, alpha: 0, numThumbs: 0}
		}
	}
	return n.thumbs[n.thumbIDs[index]], nil
}

// metadataBlock reads the single metadata block matching filter, if any.
func (n *imageNode) metadataBlock(filter string) ([]byte, error) {
	if err := n.resolveHandle(); err != nil {
		return nil, err
	}
	cFilter := n.d.sess.arena.cstring(filter)
	var blockID C.heif_item_id
	found := C.heif_image_handle_get_list_of_metadata_block_IDs(n.handle, cFilter, &blockID, 1)
	if found != 1 {
		return nil, nil
	}
	size := C.heif_image_handle_get_metadata_size(n.handle, blockID)
	if size == 0 {
		return nil, nil
	}
	buf := n.d.sess.arena.alloc(int(size))
	if err := convertHeifError(C.heif_image_handle_get_metadata(n.handle, blockID, buf)); err != nil {
		return nil, err
	}
	return C.GoBytes(buf, C.int(size)), nil
}

func (n *imageNode) exifTags() (map[string]any, error) {
	if !n.exifKnown {
		payload, err := n.metadataBlock("Exif")
		if err != nil {
			return nil, err
		}
		if payload != nil {
			tiff, err := stripExifPrefix(payload)
			if err != nil {
				return nil, err
			}
			tags, err := parseEXIF(tiff)
			if err != nil {
				return nil, err
			}
			n.exif = tags
		}
		n.exifKnown = true
	}
	return n.exif, nil
}

func (n *imageNode) xmpBytes() ([]byte, error) {
	if n.parent != nil {
		return nil, nil
	}
	if !n.xmpKnown {
		data, err := n.metadataBlock("mime")
		if err != nil {
			return nil, err
		}
		n.xmp = data
		n.xmpKnown = true
	}
	return n.xmp, nil
}

// release frees the node's native handles, thumbnails before the parent
// handle they were resolved through.
func (n *imageNode) release() {
	for _, t := range n.thumbs {
		t.release()
	}
	n.thumbs = nil
	if n.handle != nil {
		C.heif_image_handle_release(n.handle)
		n.handle = nil
	}
}

// readImage runs one native decode of n and packs the resulting plane.
func (d *Decoder) readImage(n *imageNode) (*Raster, error) {
	if err := n.resolveHandle(); err != nil {
		return nil, err
	}
	alpha, err := n.hasAlpha()
	if err != nil {
		return nil, err
	}
	bands := 3
	ch := C.enum_heif_chroma(C.heif_chroma_interleaved_RGB)
	if alpha {
		bands = 4
		ch = C.enum_heif_chroma(C.heif_chroma_interleaved_RGBA)
	}

	var img *C.struct_heif_image
	err = convertHeifError(C.heif_decode_image(n.handle, &img, C.heif_colorspace_RGB, ch, nil))
	if err != nil {
		return nil, err
	}
	defer C.heif_image_release(img)

	width, height, err := n.size()
	if err != nil {
		return nil, err
	}
	var stride C.int
	plane := C.heif_image_get_plane_readonly(img, C.heif_channel_interleaved, &stride)
	if plane == nil {
		return nil, &HeifError{Code: ErrorDecoderPlugin, Message: "decoded image has no interleaved plane"}
	}
	data := C.GoBytes(unsafe.Pointer(plane), C.int(int(stride)*height))
	raster, err := rasterFromPlane(data, int(stride), width, height, bands)
	if err != nil {
		return nil, err
	}
	cp, err := readColorProfile(d.sess, n.handle)
	if err != nil {
		return nil, err
	}
	if err := applyColorProfile(raster, cp); err != nil {
		return nil, err
	}
	return raster, nil
}
