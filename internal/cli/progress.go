package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// FlushProgress shows how many queued transactions have been persisted.
type FlushProgress struct {
	bar  *progressbar.ProgressBar
	done int
}

// NewFlushProgress creates a progress bar for total queued transactions.
func NewFlushProgress(w io.Writer, total int) *FlushProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Persisting transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &FlushProgress{bar: bar}
}

// Add records n more persisted transactions. It matches the queue's drain
// callback signature.
func (p *FlushProgress) Add(n int) {
	p.done += n
	if err := p.bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Done reports the number of transactions recorded so far.
func (p *FlushProgress) Done() int {
	return p.done
}
