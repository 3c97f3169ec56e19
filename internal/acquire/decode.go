package acquire

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/nikhilbhutani/narrator/internal/apperr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Bytes Windows-1252 leaves unassigned.
var cp1252Undefined = []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

// DecodeText decodes an uploaded text file. It accepts UTF-8 (with or
// without BOM), UTF-16 with a BOM, and Windows-1252.
func DecodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", apperr.Wrap(apperr.UnsupportedEncoding, err, "unable to decode utf-16 file content")
		}
		return string(out), nil
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	if hasUndefined1252(data) {
		return "", apperr.New(apperr.UnsupportedEncoding, "unable to decode file content, please upload a valid text file")
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", apperr.Wrap(apperr.UnsupportedEncoding, err, "unable to decode file content")
	}
	return string(out), nil
}

func hasUndefined1252(data []byte) bool {
	for _, b := range cp1252Undefined {
		if bytes.IndexByte(data, b) >= 0 {
			return true
		}
	}
	return false
}
