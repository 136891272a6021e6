package heif

import (
	"fmt"
	"io"
	"os"
)

// Source is the input contract for decoding: a random-access byte stream
// with a reliable total length. *bytes.Reader satisfies it directly; files
// are wrapped by OpenFile. The decoder never closes a caller-supplied
// Source; it only closes streams it opened itself.
type Source interface {
	io.ReadSeeker

	// Size returns the total length of the stream in bytes. The reader
	// bridge treats it as authoritative for bounds checks.
	Size() int64
}

type fileSource struct {
	f    *os.File
	size int64
}

func openFileSource(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		// Keeps fs.ErrNotExist reachable through errors.Is so a missing
		// source stays distinguishable from generic I/O failure.
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSource{f: f, size: fi.Size()}, nil
}

func (s *fileSource) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

func (s *fileSource) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

func (s *fileSource) Size() int64 {
	return s.size
}

func (s *fileSource) Close() error {
	return s.f.Close()
}

// sourcePosition reports the current offset of src.
func sourcePosition(src Source) (int64, error) {
	return src.Seek(0, io.SeekCurrent)
}

func seekStart(src Source) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("heif: rewinding source: %w", err)
	}
	return nil
}
