package util

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CleanText drops a leading BOM and replaces invalid UTF-8 so the result is safe to
// send to an LLM API as JSON.
func CleanText(raw []byte, src string) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		log.Warnf("%s: invalid UTF-8, replacing invalid chars", src)
		raw = bytes.ToValidUTF8(raw, []byte(string(utf8.RuneError)))
	}
	return string(raw)
}

// CollapseWhitespace turns every run of whitespace into a single space and trims the ends.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate caps s at max characters (runes). A non-positive max disables the cap.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// UTF16Prefix returns the UTF-16 code units of the first max units of s.
func UTF16Prefix(s string, max int) []uint16 {
	units := make([]uint16, 0, max)
	for _, r := range s {
		if len(units) >= max {
			break
		}
		if r >= 0x10000 {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)))
			if len(units) < max {
				units = append(units, uint16(0xDC00+(r&0x3FF)))
			}
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}
