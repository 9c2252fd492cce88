package ui

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar renders calculation progress on the terminal. Total grows as
// enumeration discovers more entries, so the maximum is adjusted on every
// update.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates a progress bar for a tree calculation.
func NewBar() *Bar {
	bar := progressbar.NewOptions64(
		1,
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription("hashing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
	)
	_ = bar.RenderBlank()

	return &Bar{bar: bar}
}

// Update reflects the shared progress counters on the bar.
func (b *Bar) Update(totalFiles, filesDone int64) {
	if totalFiles > 0 {
		b.bar.ChangeMax64(totalFiles)
	}
	_ = b.bar.Set64(filesDone)
}

// Finish completes and closes the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}
