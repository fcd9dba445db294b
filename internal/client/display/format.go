package display

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// PrettyPrintJSON prints formatted JSON
func PrettyPrintJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Println(string(data))
}

// FormatScore renders a search score from White's point of view. Forced
// results are reported as the winning side.
func FormatScore(score float64) string {
	switch {
	case score >= math.MaxFloat64:
		return "forced win for White"
	case score <= -math.MaxFloat64:
		return "forced win for Black"
	default:
		return fmt.Sprintf("%+g", score)
	}
}

// FormatSearch summarizes a search. Zero score and elapsed are omitted.
func FormatSearch(depth, nodes int, score float64, elapsed time.Duration) string {
	parts := []string{fmt.Sprintf("depth %d", depth), fmt.Sprintf("%d nodes", nodes)}
	if score != 0 {
		parts = append(parts, "score "+FormatScore(score))
	}
	if elapsed > 0 {
		parts = append(parts, elapsed.Round(time.Millisecond).String())
	}
	return strings.Join(parts, ", ")
}

// FormatHistory numbers a move list the way move sheets do
func FormatHistory(moves []string) string {
	var sb strings.Builder
	for i, move := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteString(move)
	}
	return sb.String()
}
