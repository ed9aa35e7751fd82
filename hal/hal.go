// Package hal describes the hardware capabilities the victim core consumes
// and provides implementations for running the victim as a host process and
// for tests.
//
// On a real target these calls map to platform_init, init_uart,
// trigger_setup, trigger_high/trigger_low and putch. All of them are
// infallible and block as long as the hardware needs.
package hal

// Trigger drives the measurement trigger line.
type Trigger interface {
	// High asserts the trigger.
	High()

	// Low de-asserts the trigger.
	Low()
}

// Platform is the full hardware capability surface.
type Platform interface {
	Trigger

	// Init brings up clocks and the core platform.
	Init()

	// InitUART configures the serial link.
	InitUART()

	// TriggerSetup configures the trigger line as an output, de-asserted.
	TriggerSetup()

	// Putch writes a single raw character to the serial link, bypassing framing.
	Putch(c byte)
}
