package upload

import "fmt"

const (
	kib = 1024
	mib = 1024 * 1024
	gib = 1024 * 1024 * 1024
)

// formatBytes renders a byte count in human-readable units. Whole bytes below
// 1024 are printed as-is; larger values use KB/MB/GB with two decimals.
func formatBytes(n int64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d B", n)
	case n < mib:
		return fmt.Sprintf("%.2f KB", float64(n)/kib)
	case n < gib:
		return fmt.Sprintf("%.2f MB", float64(n)/mib)
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/gib)
	}
}

// megabytes converts an MB-denominated bound to bytes.
func megabytes(mb float64) int64 {
	return int64(mb * mib)
}
