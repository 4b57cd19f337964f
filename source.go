package main

import (
	"os"
	"strings"
	"unicode/utf16"
)

// ReadSource reads path and returns UTF-8 bytes ready for the lexer,
// applying §6's encoding auto-detection: a UTF-16LE BOM (0xFF 0xFE)
// transcodes the rest of the file to UTF-8; a UTF-8 BOM (0xEF 0xBB 0xBF) is
// stripped; anything else is assumed to already be UTF-8 and passed
// through unchanged.
func ReadSource(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSource(raw), nil
}

// DecodeSource applies the BOM rules to an already-read byte slice; split
// out from ReadSource so it can be exercised directly in tests without
// touching the filesystem.
func DecodeSource(raw []byte) []byte {
	switch {
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xFE:
		return utf16LEToUTF8(raw[2:])
	case len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF:
		return raw[3:]
	default:
		return raw
	}
}

// utf16LEToUTF8 transcodes a little-endian UTF-16 byte stream (BOM already
// stripped) to UTF-8, handling surrogate pairs via the standard library's
// utf16 decoder rather than a hand-rolled one (original_source/util.c
// rolls its own; Go already has this in the standard library, and nothing
// in the example pack brings a richer text-encoding library for it — see
// DESIGN.md).
func utf16LEToUTF8(b []byte) []byte {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	runes := utf16.Decode(units)
	return []byte(string(runes))
}

// DefaultOutputPath derives the output executable path from the input
// path per §6: replace the extension with .exe, or append .exe if there
// is no '.' in the final path component.
func DefaultOutputPath(input string) string {
	slash := strings.LastIndexAny(input, "/\\")
	base := input
	dirPrefix := ""
	if slash >= 0 {
		dirPrefix = input[:slash+1]
		base = input[slash+1:]
	}
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		base = base[:dot]
	}
	return dirPrefix + base + ".exe"
}
