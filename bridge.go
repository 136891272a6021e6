package heif

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <libheif/heif.h>

extern int64_t goheifGetPosition(void* userdata);
extern int goheifRead(void* data, size_t size, void* userdata);
extern int goheifSeek(int64_t position, void* userdata);
extern int goheifWaitForFileSize(int64_t target_size, void* userdata);
extern int goheifWrite(struct heif_context* ctx, void* data, size_t size, void* userdata);

static enum heif_reader_grow_status goheifWaitAdapter(int64_t target_size, void* userdata) {
	return (enum heif_reader_grow_status)goheifWaitForFileSize(target_size, userdata);
}

static struct heif_error goheifWriteAdapter(struct heif_context* ctx, const void* data, size_t size, void* userdata) {
	struct heif_error err;
	if (goheifWrite(ctx, (void*)data, size, userdata) == 0) {
		err.code = heif_error_Ok;
		err.subcode = heif_suberror_Unspecified;
		err.message = "Success";
	} else {
		err.code = heif_error_Encoding_error;
		err.subcode = heif_suberror_Cannot_write_output_data;
		err.message = "Cannot write to output sink";
	}
	return err;
}

static struct heif_reader goheifReader = {
	.reader_api_version = 1,
	.get_position       = goheifGetPosition,
	.read               = goheifRead,
	.seek               = goheifSeek,
	.wait_for_file_size = goheifWaitAdapter,
};

static struct heif_writer goheifWriter = {
	.writer_api_version = 1,
	.write              = goheifWriteAdapter,
};

static struct heif_error readFromReader(struct heif_context* ctx, void* userdata) {
	return heif_context_read_from_reader(ctx, &goheifReader, userdata, NULL);
}

static struct heif_error writeToWriter(struct heif_context* ctx, void* userdata) {
	return heif_context_write(ctx, &goheifWriter, userdata);
}
*/
import "C"

// readContainer lets libheif build its internal index of the session's
// source by pulling through the reader bridge.
func readContainer(s *session) error {
	return convertHeifError(C.readFromReader(s.ctx, s.userData))
}

// writeContainer streams the finished bitstream of the session's context to
// its sink through the writer bridge.
func writeContainer(s *session) error {
	return convertHeifError(C.writeToWriter(s.ctx, s.userData))
}
