package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorBoard(t *testing.T) {
	ascii := "  a b\n8 k . \n1 K . \n  a b"

	colored := ColorBoard(ascii)
	lines := strings.Split(colored, "\n")

	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], Cyan+"a"+Reset)
	assert.Contains(t, lines[1], Red+"k"+Reset)
	assert.Contains(t, lines[2], Blue+"K"+Reset)
	assert.Contains(t, lines[2], Cyan+"1"+Reset)
	assert.Equal(t, ascii, stripColors(colored))
}

func stripColors(s string) string {
	for _, code := range []string{Reset, Red, Green, Yellow, Blue, Magenta, Cyan, White} {
		s = strings.ReplaceAll(s, code, "")
	}
	return s
}
