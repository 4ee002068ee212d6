package api

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var binaryMagic = [][]byte{
	[]byte("%PDF-"),
	{0x89, 0x50, 0x4e, 0x47},
	{0x50, 0x4b, 0x03, 0x04},
	{0xff, 0xd8, 0xff},
}

// isSupportedTextUpload accepts plain UTF-8 carrier correspondence and
// rejects binary payloads. Scanned letters must be OCR'd upstream.
func isSupportedTextUpload(body []byte) bool {
	if strings.TrimSpace(string(body)) == "" {
		return false
	}
	if !utf8.Valid(body) {
		return false
	}
	for _, magic := range binaryMagic {
		if bytes.HasPrefix(body, magic) {
			return false
		}
	}
	return true
}
