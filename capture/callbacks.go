package capture

import "time"

// Progress phases.
const (
	PhaseCapturing = "capturing"
	PhaseVerifying = "verifying"
	PhaseComplete  = "complete"
)

// Progress contains information about a running capture or verification.
// Passed to ProgressCallback after every encryption.
type Progress struct {
	// Phase describes the current operation phase:
	//   "capturing" - Collecting traces
	//   "verifying" - Checking known-answer vectors
	//   "complete"  - Operation completed successfully
	Phase string

	// Current is the number of encryptions done
	Current int

	// Total is the number of encryptions planned
	Total int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// KeyLoads is the number of key-load commands sent so far
	KeyLoads int

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called after every encryption to report progress.
// Implementations should return quickly to avoid stretching the capture.
//
// Example:
//
//	c := capture.New(port,
//	    capture.WithProgressCallback(func(p capture.Progress) {
//	        fmt.Printf("[%s] %.1f%% - %d/%d\n", p.Phase, p.Percentage, p.Current, p.Total)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// capturer. The log package provides a zap-backed implementation.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
