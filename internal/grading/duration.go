package grading

import "fmt"

// FormatDuration renders an answer length as "M min S sec", or "S sec"
// under a minute. A nil duration renders as "N/A".
func FormatDuration(seconds *float64) string {
	if seconds == nil {
		return "N/A"
	}
	total := int(*seconds)
	if total < 0 {
		total = 0
	}
	minutes, secs := total/60, total%60
	if minutes > 0 {
		return fmt.Sprintf("%d min %d sec", minutes, secs)
	}
	return fmt.Sprintf("%d sec", secs)
}
