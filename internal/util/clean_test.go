package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a\n\n b\t c  "))
	assert.Equal(t, "", CollapseWhitespace(" \n\t "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "héllo", Truncate("héllo", 0))
}

func TestUTF16Prefix(t *testing.T) {
	assert.Equal(t, []uint16{'a', 'b'}, UTF16Prefix("abc", 2))
	// U+1F600 is a surrogate pair.
	assert.Equal(t, []uint16{0xD83D, 0xDE00, 'x'}, UTF16Prefix("\U0001F600x", 5))
	assert.Equal(t, []uint16{0xD83D}, UTF16Prefix("\U0001F600", 1))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hi", CleanText([]byte("\xEF\xBB\xBFhi"), "test"))
	assert.Equal(t, "a�b", CleanText([]byte("a\xffb"), "test"))
}
