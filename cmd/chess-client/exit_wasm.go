//go:build js && wasm

package main

import (
	"syscall/js"

	"chessworker/internal/client/display"
)

// The page is served next to an API proxy mounted at /chess
var defaultAPIBase = js.Global().Get("location").Get("origin").String() + "/chess"

// handleExit restarts the client since a browser terminal has nowhere to exit to
func handleExit() (restart bool) {
	display.Println(display.Cyan, "Goodbye!")
	display.Println(display.Yellow, "\nSession ended, restarting the client.\n")
	return true
}
