// Package capture provides the host side of a SimpleSerial side-channel
// capture: it drives a victim through key loads and encryptions and collects
// the results.
//
// # Basic Usage
//
//	// User provides the link to the victim (io.ReadWriter)
//	port, err := serial.OpenPort(&serial.Config{Name: "/dev/ttyACM0", Baud: 38400})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c := capture.New(port)
//
//	if err := c.SetKey(ctx, key); err != nil {
//	    log.Fatal(err)
//	}
//	out, err := c.Encrypt(ctx, text)
//
// # Acquisition Patterns
//
// Run draws key/text pairs from a ktp.Pattern and only reloads the key when
// it changes:
//
//	pattern := ktp.NewTVLABase3(5000, rand.New(rand.NewSource(1)))
//	traces, err := c.Run(ctx, pattern, 5000)
//
// # Known-Answer Verification
//
//	f, err := vectors.Parse("kat.txt")
//	n, err := c.Verify(ctx, f)
//	var mismatch *capture.MismatchError
//	if errors.As(err, &mismatch) {
//	    fmt.Printf("line %d: got %x\n", mismatch.Line, mismatch.Actual)
//	}
//
// # Configuration Options
//
//	c := capture.New(port,
//	    capture.WithProgressCallback(progressFunc),
//	    capture.WithLogger(logger),
//	    capture.WithReadTimeout(time.Second),
//	    capture.WithCommandDelay(5*time.Millisecond),
//	)
//
// # Error Handling
//
// The package provides structured error types:
//   - MismatchError: a vector produced an unexpected ciphertext
//   - UnexpectedFrameError: the victim answered with the wrong frame type
//   - protocol.ProtocolError: the victim acknowledged an error status
//
// Lines that do not start with a response tag, such as the victim's boot
// greeting, are skipped.
package capture
