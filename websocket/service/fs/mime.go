package fs

import (
	"path"
	"strings"
)

const defaultMimeType = "application/octet-stream"

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"ico":  "image/x-icon",
	"svg":  "image/svg+xml",
}

// mimeType looks only at the extension. Content is never sniffed.
func mimeType(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	// a leading dot names a hidden file, not an extension
	if strings.LastIndex(name, ".") <= 0 {
		return defaultMimeType
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return defaultMimeType
}
