// Command victim runs a SimpleSerial capture target on a serial port or on
// standard input and output.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := CLI()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "victim: %v\n", err)
		os.Exit(1)
	}
}
