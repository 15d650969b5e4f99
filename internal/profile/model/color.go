package model

import "unicode/utf16"

// Palette is fixed: every client viewing a session must derive the same
// color for a participant, so entries may only ever be appended to a new
// palette, never reordered.
var Palette = [...]string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#FFA07A",
	"#98D8C8",
	"#F7DC6F",
	"#BB8FCE",
	"#85C1E9",
}

// HashID is the rolling hash*31+unit over the UTF-16 code units of id,
// truncated to a signed 32-bit integer on every step.
func HashID(id string) int32 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(id)) {
		hash = hash*31 + int32(unit)
	}
	return hash
}

// Color returns the palette entry for id.
func Color(id string) string {
	h := int64(HashID(id))
	if h < 0 {
		h = -h
	}
	return Palette[h%int64(len(Palette))]
}
