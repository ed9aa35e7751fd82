// Package victim implements the device side of a side-channel capture
// target: a SimpleSerial command loop that loads keys, switches block modes
// and encrypts plaintexts with the measurement trigger raised around the
// cipher call only.
//
// # Usage
//
//	platform := hal.NewHost(os.Stdout)
//	device := protocol.NewDevice(port)
//
//	target, err := victim.New(platform, device,
//	    victim.WithRuntimeMode(true),
//	    victim.WithJitter(true),
//	)
//	if err != nil {
//	    return err
//	}
//	return target.Serve(ctx)
//
// # Commands
//
//	k  16 bytes   load key
//	p  16 bytes   encrypt, answers with an r frame
//	x   0 bytes   reset (no-op)
//	m   2 bytes   select block mode (runtime-mode build)
//	m  18 bytes   mask (no-op, fixed-mode build)
//
// Every command is acknowledged with status 0. Frames the transport rejects
// never reach the dispatcher.
//
// # Byte Order
//
// Buffers on the wire hold two big-endian 64-bit words. Reorder converts
// them to native little-endian words before encryption and back afterwards.
package victim
