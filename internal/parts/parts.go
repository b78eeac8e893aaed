// Package parts slices local files into upload parts.
//
// A file no larger than the division threshold is sent as a single part.
// Larger files are sent in slices of the configured slice size; the part that
// reaches the end of the file is the last part.
package parts

import (
	"io"
	"os"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// MinPartSize is the smallest non-final part S3 and MinIO accept.
const MinPartSize int64 = 5 * 1024 * 1024

// EnforceMinimum returns cfg with the part-size defaults applied and both
// thresholds raised to at least floor. It reports whether a value was raised.
func EnforceMinimum(cfg transfertypes.Configuration, floor int64) (transfertypes.Configuration, bool) {
	cfg = cfg.WithDefaults()
	raised := false
	if cfg.SliceSizeForUpload < floor {
		cfg.SliceSizeForUpload = floor
		raised = true
	}
	if cfg.DivisionForUpload < floor {
		cfg.DivisionForUpload = floor
		raised = true
	}
	return cfg, raised
}

// Slice is the byte range of one part.
type Slice struct {
	Offset   int64
	Size     int64
	FileSize int64
	Last     bool
}

// Plan returns the slice starting at offset for a file of fileSize bytes.
// An offset equal to fileSize yields an empty last slice.
func Plan(fileSize, offset int64, cfg transfertypes.Configuration) (Slice, error) {
	if offset < 0 || offset > fileSize {
		return Slice{}, errors.NewError("planPart", errors.ErrInvalidInput).
			WithMessage("part offset is outside the file")
	}

	cfg = cfg.WithDefaults()
	rest := fileSize - offset

	size := rest
	if fileSize > cfg.DivisionForUpload && rest > cfg.SliceSizeForUpload {
		size = cfg.SliceSizeForUpload
	}

	return Slice{
		Offset:   offset,
		Size:     size,
		FileSize: fileSize,
		Last:     offset+size >= fileSize,
	}, nil
}

// Part is a slice together with its bytes. Release must be called once the
// data is no longer needed.
type Part struct {
	Slice
	Data []byte

	release func()
}

// Release returns the part buffer to its pool.
func (p *Part) Release() {
	if p.release != nil {
		p.release()
		p.release = nil
	}
	p.Data = nil
}

// Source reads parts from a filesystem.
type Source struct {
	fs      billy.Filesystem
	buffers pool.Sized
}

// NewSource creates a Source over fs.
func NewSource(fs billy.Filesystem) *Source {
	return &Source{fs: fs}
}

// Size returns the size of the file at path.
func (s *Source) Size(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewError("stat", errors.ErrFileNotFound).WithKey(path)
		}
		return 0, errors.NewError("stat", err).WithKey(path)
	}
	if info.IsDir() {
		return 0, errors.NewError("stat", errors.ErrInvalidInput).
			WithKey(path).
			WithMessage("path is a directory")
	}
	return info.Size(), nil
}

// ReadPart reads the part of the file at path starting at offset.
func (s *Source) ReadPart(path string, offset int64, cfg transfertypes.Configuration) (*Part, error) {
	fileSize, err := s.Size(path)
	if err != nil {
		return nil, err
	}

	slice, err := Plan(fileSize, offset, cfg)
	if err != nil {
		return nil, err
	}

	part := &Part{Slice: slice}
	if slice.Size == 0 {
		part.Data = []byte{}
		return part, nil
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, errors.NewError("readPart", err).WithKey(path)
	}
	defer f.Close()

	buf, release := s.buffer(slice.Size, cfg.WithDefaults().SliceSizeForUpload)

	n, err := f.ReadAt(buf, slice.Offset)
	if err != nil && err != io.EOF {
		release()
		return nil, errors.NewError("readPart", err).WithKey(path)
	}
	if int64(n) != slice.Size {
		release()
		return nil, errors.NewError("readPart", io.ErrUnexpectedEOF).
			WithKey(path).
			WithMessage("file changed while uploading")
	}

	part.Data = buf[:n]
	part.release = release
	return part, nil
}

// buffer returns a size-byte buffer. Buffers up to sliceSize come from the
// pool for that slice size; larger single-part reads are allocated.
func (s *Source) buffer(size, sliceSize int64) ([]byte, func()) {
	if size > sliceSize {
		return make([]byte, size), func() {}
	}
	bp := s.buffers.For(int(sliceSize))
	buf := bp.Get()
	return buf[:size], func() { bp.Put(buf) }
}
