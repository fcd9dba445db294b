package display

import (
	"fmt"
	"strings"
)

// RenderBoard prints the server's ASCII board with colored pieces
func RenderBoard(asciiBoard string) {
	fmt.Println(ColorBoard(asciiBoard))
}

// ColorBoard colors an ASCII board. The first and last lines carry the file
// letters, every other line a rank.
func ColorBoard(asciiBoard string) string {
	lines := strings.Split(strings.TrimRight(asciiBoard, "\n"), "\n")

	var sb strings.Builder
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}

		fileLine := i == 0 || i == len(lines)-1
		for _, char := range line {
			sb.WriteString(colorCell(char, fileLine))
		}
	}
	return sb.String()
}

func colorCell(char rune, fileLine bool) string {
	switch {
	case fileLine && char >= 'a' && char <= 'h', char >= '1' && char <= '8':
		return Cyan + string(char) + Reset
	case char >= 'A' && char <= 'Z':
		return Blue + string(char) + Reset
	case char >= 'a' && char <= 'z':
		return Red + string(char) + Reset
	default:
		return string(char)
	}
}
