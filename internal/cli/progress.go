package cli

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// scanSpinner shows a spinner with a running file count while the
// definition and reference scans walk the tree.
type scanSpinner struct {
	bar *progressbar.ProgressBar
}

// newScanSpinner writes to w; pass nil in quiet mode to get a no-op spinner.
func newScanSpinner(w io.Writer) *scanSpinner {
	if w == nil {
		return &scanSpinner{}
	}
	return &scanSpinner{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// OnFileScanned implements locate.Progress.
func (s *scanSpinner) OnFileScanned(path string) {
	if s.bar != nil {
		_ = s.bar.Add(1)
	}
}

// Finish clears the spinner line.
func (s *scanSpinner) Finish() {
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}
