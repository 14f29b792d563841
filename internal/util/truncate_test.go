package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateBytes(t *testing.T) {
	out, truncated := TruncateBytes("abcdef", 4)
	assert.Equal(t, "abcd", out)
	assert.True(t, truncated)

	out, truncated = TruncateBytes("abc", 4)
	assert.Equal(t, "abc", out)
	assert.False(t, truncated)

	out, truncated = TruncateBytes("abc", 0)
	assert.Equal(t, "abc", out)
	assert.False(t, truncated)
}

func TestClampBytes(t *testing.T) {
	out, truncated := ClampBytes("abc", 0)
	assert.Equal(t, "", out)
	assert.True(t, truncated)

	out, truncated = ClampBytes("", 0)
	assert.Equal(t, "", out)
	assert.False(t, truncated)

	out, truncated = ClampBytes("abcdef", 2)
	assert.Equal(t, "ab", out)
	assert.True(t, truncated)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "", Preview("", 10))
	assert.Equal(t, "a b c", Preview("a\n b\t c", 10))
	assert.Equal(t, "hello...", Preview("hello world", 5))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "red plain", StripANSI("\x1b[31mred\x1b[0m plain"))
	assert.Equal(t, "title", StripANSI("\x1b]0;window\x07title"))
	assert.Equal(t, "", StripANSI(""))
}
