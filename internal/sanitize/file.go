package sanitize

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/nikhilbhutani/narrator/internal/apperr"
)

// SniffLen is how many leading bytes CheckFileType needs for sniffing.
const SniffLen = 512

var allowedDeclaredTypes = map[string]bool{
	"":                         true,
	"text/plain":               true,
	"application/octet-stream": true,
}

// CheckFileType accepts only .txt uploads whose declared and sniffed media
// types are plain text. head is the start of the file content.
func CheckFileType(name, declared string, head []byte) error {
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".txt" {
		return apperr.New(apperr.UnsupportedFileType, "only .txt files are allowed, got %q", filepath.Base(name))
	}

	declaredType := ""
	if strings.TrimSpace(declared) != "" {
		mt, _, err := mime.ParseMediaType(declared)
		if err != nil {
			return apperr.Wrap(apperr.UnsupportedFileType, err, "invalid content type %q", declared)
		}
		declaredType = mt
	}
	if !allowedDeclaredTypes[declaredType] {
		return apperr.New(apperr.UnsupportedFileType, "invalid file type %q, only plain text is allowed", declaredType)
	}

	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	if sniffed != "text/plain" {
		return apperr.New(apperr.UnsupportedFileType, "file content looks like %q, not plain text", sniffed)
	}
	return nil
}
