// Package output renders terminal output for rpmconf: the resolution
// history table and shared formatting helpers. Tables use ASCII with
// ANSI color only when stdout is a terminal.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/0x6d6e647a/rpmconf/internal/store"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted:
// stdout is a TTY and NO_COLOR is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is
// enabled.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderHistoryTable renders the resolution journal, newest first.
func RenderHistoryTable(resolutions []*store.Resolution) string {
	if len(resolutions) == 0 {
		return "No resolutions recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-18s %-8s %-17s %-13s %s\n",
		"ID", "Package", "Kind", "Action", "When", "File"))
	sb.WriteString(strings.Repeat("─", 84))
	sb.WriteString("\n")

	for _, r := range resolutions {
		action := r.Action
		if r.Undone {
			action = colorize(colorGray, action+" (undone)")
		} else {
			action = colorize(colorGreen, action)
		}
		sb.WriteString(fmt.Sprintf("%-5d %-18s %-8s %-17s %-13s %s\n",
			r.ID,
			truncate(r.Package, 18),
			r.Kind,
			action,
			formatRelativeTime(r.CreatedAt),
			r.Base))
	}

	return sb.String()
}

// formatRelativeTime renders a timestamp as a coarse "N days ago".
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncate shortens s to max characters with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
