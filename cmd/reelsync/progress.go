package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar builds the enrichment progress indicator. The bar is hidden
// when stderr is not a terminal so piped output stays clean.
func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(isTerminal(os.Stderr)),
	)
}
