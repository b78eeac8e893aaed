package transfer

import (
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/parts"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// GetFileInfo describes the local file at path: its size, modification time
// and detected content type. A missing file yields ErrFileNotFound.
func (s *Service) GetFileInfo(path string) (*transfertypes.FileInfo, error) {
	info, err := s.opts.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError("getFileInfo", errors.ErrFileNotFound).WithKey(path)
		}
		return nil, errors.NewError("getFileInfo", err).WithKey(path)
	}
	if info.IsDir() {
		return nil, errors.NewError("getFileInfo", errors.ErrInvalidInput).
			WithKey(path).
			WithMessage("path is a directory")
	}

	return &transfertypes.FileInfo{
		Exists:  true,
		Size:    info.Size(),
		MIME:    parts.DetectContentType(s.opts.fs, path),
		ModTime: info.ModTime(),
	}, nil
}
