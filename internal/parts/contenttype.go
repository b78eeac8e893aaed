package parts

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
)

// DefaultContentType is used when no better type can be determined.
const DefaultContentType = "application/octet-stream"

// DetectContentType sniffs the content type of the file at path, falling
// back to its extension.
func DetectContentType(fs billy.Filesystem, path string) string {
	file, err := fs.Open(path)
	if err != nil {
		return ContentTypeForName(path)
	}
	defer file.Close()

	// Read first 512 bytes for content detection
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}

	return ContentTypeForName(path)
}

// ContentTypeForName returns the content type registered for the extension
// of name, or DefaultContentType.
func ContentTypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
