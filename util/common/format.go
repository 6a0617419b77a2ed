package common

import (
	"fmt"
)

// FormatSize renders a byte count with a binary unit suffix, e.g. "1.50GB".
func FormatSize(n uint64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	unitIndex := 0
	size := float64(n)

	for size >= 1024 && unitIndex < len(units)-1 {
		size /= 1024
		unitIndex++
	}
	return fmt.Sprintf("%.2f%s", size, units[unitIndex])
}
