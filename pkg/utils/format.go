// Package utils holds small formatting helpers; the CLI summary output
// uses FormatDuration and FormatTable.
package utils

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration in a human-readable way, used for
// the CLI's "converted N/M pairs in Xs" summary line.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	seconds := d.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}

// FormatBytes formats byte counts in human-readable form.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatBool formats a boolean as "enabled" or "disabled".
func FormatBool(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// TruncateString truncates s to maxLen, appending an ellipsis when
// maxLen leaves room for one.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// PadRight pads s with spaces to width.
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	padding := make([]byte, width-len(s))
	for i := range padding {
		padding[i] = ' '
	}
	return s + string(padding)
}

// FormatTable renders rows as a simple aligned table, used for the
// CLI's end-of-run per-pair summary.
func FormatTable(headers []string, rows [][]string, padding int) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}
	for i := range colWidths {
		colWidths[i] += padding * 2
	}

	result := ""
	for i, header := range headers {
		result += PadRight(header, colWidths[i])
		if i < len(headers)-1 {
			result += "|"
		}
	}
	result += "\n"

	for i, width := range colWidths {
		for j := 0; j < width; j++ {
			result += "-"
		}
		if i < len(colWidths)-1 {
			result += "+"
		}
	}
	result += "\n"

	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) {
				result += PadRight(cell, colWidths[i])
				if i < len(colWidths)-1 {
					result += "|"
				}
			}
		}
		result += "\n"
	}

	return result
}
