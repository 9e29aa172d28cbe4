// Package encoding provides text encoding utilities for the classic protocol.
//
// Classic protocol strings are fixed 64-byte fields in code page 437, padded
// with spaces rather than nulls.
package encoding

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// StringSize is the width of a protocol string field.
const StringSize = 64

// UTF8ToCP437 converts a UTF-8 string to code page 437 bytes.
// Runes with no CP437 mapping become '?'.
func UTF8ToCP437(s string) []byte {
	result := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.CodePage437.EncodeRune(r)
		if !ok {
			b = '?'
		}
		result = append(result, b)
	}
	return result
}

// CP437ToUTF8 converts code page 437 bytes to a UTF-8 string.
func CP437ToUTF8(data []byte) string {
	decoder := charmap.CodePage437.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToFixedCP437 encodes s into a fixed-size field, truncating or
// padding with spaces.
func UTF8ToFixedCP437(s string, size int) []byte {
	result := bytes.Repeat([]byte{' '}, size)
	copy(result, UTF8ToCP437(s))
	return result
}

// FixedCP437ToUTF8 decodes a space-padded field.
func FixedCP437ToUTF8(data []byte) string {
	return strings.TrimRight(CP437ToUTF8(data), " ")
}
