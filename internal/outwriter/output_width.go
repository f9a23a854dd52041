package outwriter

import (
	"os"

	"github.com/huangsam/finbench/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableNameWidth calculates the maximum width for model and dataset
// names in table output based on terminal width.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank, counts, both MASE columns and label with borders and padding
	baseWidth := 70

	// Two name columns share what is left
	available := (termWidth - baseWidth) / 2
	if available < 10 {
		return 10
	}
	if available > 40 {
		return 40
	}
	return available
}

// truncateName shortens s to width runes, marking the cut with "...".
func truncateName(s string, width int) string {
	r := []rune(s)
	if len(r) <= width || width <= 3 {
		return s
	}
	return string(r[:width-3]) + "..."
}
