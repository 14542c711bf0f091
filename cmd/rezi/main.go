// Command rezi is the reference CLI over the render pipeline: render
// runs the bundled demo app live against a real terminal, replay drives
// it deterministically from a captured repro bundle instead of a live
// input stream.
//
// Grounded on the teacher's cmd/tui.go (cobra command structure, signal-
// driven graceful shutdown) and cmd/env.go (colored stderr error
// reporting via fatih/color).
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
