//go:build linux

package check

import (
	"os"
	"syscall"
	"time"
)

// createdTime approximates the file creation time. Linux does not expose
// birth time through os.FileInfo, so the inode change time is the closest
// available signal; it falls back to mtime if the stat shape is unexpected.
func createdTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return fi.ModTime()
}
