// Command capture drives a SimpleSerial victim over a serial port: it loads
// keys, requests encryptions, runs acquisition patterns and checks
// known-answer vector files.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := CLI()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "capture: %v\n", err)
		os.Exit(1)
	}
}
