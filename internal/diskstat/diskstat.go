// Package diskstat reports filesystem capacity for a directory, the way a
// "df"-equivalent syscall would, for the QuotaEngine's target computation.
package diskstat

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Stat holds a Statfs-derived view of a mount point, in bytes.
type Stat struct {
	Total int64
	Free  int64
}

// Get returns the total and available (non-root-reserved) capacity of the
// filesystem containing path.
func Get(path string) (Stat, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Stat{}, fmt.Errorf("diskstat: statfs %q: %w", path, err)
	}
	blockSize := int64(st.Bsize)
	return Stat{
		Total: blockSize * int64(st.Blocks),
		Free:  blockSize * int64(st.Bavail),
	}, nil
}
