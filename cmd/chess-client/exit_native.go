//go:build !js && !wasm

package main

import "chessworker/internal/client/display"

const defaultAPIBase = "http://localhost:8080"

func handleExit() (restart bool) {
	display.Println(display.Cyan, "Goodbye!")
	return false
}
