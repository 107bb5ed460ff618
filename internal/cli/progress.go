package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter implements collection progress reporting with a
// progress bar. The module count is unknown up front, so the bar runs in
// spinner mode.
type CLIProgressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) OnCollectionStart() {
	if c.quiet {
		return
	}
	c.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Collecting modules"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSpinnerType(14),
	)
}

func (c *CLIProgressReporter) OnModuleCollected(collected int, path string) {
	if c.quiet {
		return
	}
	if c.bar != nil {
		c.bar.Add(1)
	}
}

func (c *CLIProgressReporter) OnCollectionComplete(modules int, duration time.Duration) {
	if c.quiet {
		return
	}
	if c.bar != nil {
		c.bar.Finish()
		c.bar = nil
		fmt.Println()
	}
	fmt.Printf("✓ Collected %d modules (took %.1fs)\n", modules, duration.Seconds())
}
