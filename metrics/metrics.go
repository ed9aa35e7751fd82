// Package metrics exposes prometheus counters for a running victim.
package metrics

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moffa90/go-simpleserial/protocol"
)

var (
	// Registry holds every victim metric plus the go and process collectors
	Registry = prometheus.NewRegistry()

	// Commands counts acknowledged commands by code
	Commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simpleserial_commands_total",
		Help: "Number of commands dispatched by the victim",
	}, []string{"code"})

	// RejectedFrames counts frames refused by the framing layer, by status
	RejectedFrames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simpleserial_rejected_frames_total",
		Help: "Number of frames rejected before dispatch",
	}, []string{"status"})

	// TriggerWindows counts completed trigger windows
	TriggerWindows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simpleserial_trigger_windows_total",
		Help: "Number of times the trigger was raised and lowered",
	})

	// TriggerWindowSeconds observes how long the trigger stayed high
	TriggerWindowSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "simpleserial_trigger_window_seconds",
		Help:    "Duration of trigger windows",
		Buckets: prometheus.ExponentialBuckets(1e-7, 4, 12),
	})

	bindOnce sync.Once
)

func bindMetrics() {
	bindOnce.Do(func() {
		Registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			Commands,
			RejectedFrames,
			TriggerWindows,
			TriggerWindowSeconds,
		)
	})
}

// ObserveCommand records an acknowledged command. It has the shape of
// victim.CommandHook.
func ObserveCommand(code, status byte) {
	Commands.WithLabelValues(string(rune(code))).Inc()
}

// ObserveReject records a frame rejected by the framing layer. It has the
// shape of protocol.RejectFunc.
func ObserveReject(code, status byte) {
	RejectedFrames.WithLabelValues(protocol.StatusName(status)).Inc()
}

// ObserveTriggerWindow records a completed trigger window. It has the shape
// of hal.WindowObserver.
func ObserveTriggerWindow(d time.Duration) {
	TriggerWindows.Inc()
	TriggerWindowSeconds.Observe(d.Seconds())
}

// Handler returns the HTTP handler serving the registry.
func Handler() http.Handler {
	bindMetrics()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Start serves /metrics on addr in the background. The returned listener
// stops the server when closed.
func Start(addr string) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	s := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = s.Serve(l)
	}()

	return l, nil
}
