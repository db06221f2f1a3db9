package format

import "fmt"

// Duration renders a second count as "{h}h {m}m {s}s", dropping leading
// zero components: 312 -> "5m 12s", 12 -> "12s". Zero renders as "0s".
// Negative inputs are clamped to zero.
func Duration(totalSeconds int) string {
	if totalSeconds <= 0 {
		return "0s"
	}

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// DurationMillis renders a millisecond count using the same layout as
// Duration. Sub-second precision is truncated, not rounded.
func DurationMillis(totalMillis int64) string {
	return Duration(int(totalMillis / 1000))
}
