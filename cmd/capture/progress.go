package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/moffa90/go-simpleserial/capture"
)

// progressBar renders capture progress on a single terminal line.
type progressBar struct {
	w     io.Writer
	width int
	last  int
}

func newProgressBar(w io.Writer, width int) *progressBar {
	return &progressBar{w: w, width: width, last: -1}
}

func (pb *progressBar) render(percentage float64) string {
	filled := int(float64(pb.width) * percentage / 100.0)
	if filled > pb.width {
		filled = pb.width
	}

	bar := strings.Repeat("#", filled) + strings.Repeat(".", pb.width-filled)
	return fmt.Sprintf("[%s] %5.1f%%", bar, percentage)
}

// update is a capture.ProgressCallback. It redraws only when the whole
// percentage changes.
func (pb *progressBar) update(p capture.Progress) {
	if p.Phase == capture.PhaseComplete {
		fmt.Fprintf(pb.w, "\r%s %d/%d in %s\n", pb.render(100), p.Total, p.Total, p.ElapsedTime.Round(1e6))
		pb.last = -1
		return
	}

	pct := int(p.Percentage)
	if pct == pb.last {
		return
	}
	pb.last = pct
	fmt.Fprintf(pb.w, "\r%s %d/%d %s", pb.render(p.Percentage), p.Current, p.Total, p.Phase)
}
