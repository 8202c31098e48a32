//go:build linux

package fslist

import (
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func platformTimes(path string, info fs.FileInfo) (created, accessed Timestamp) {
	created = birthTime(path)

	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return created, Timestamp{Err: ErrTimeUnsupported}
	}
	sec, nsec := st.Atim.Unix()
	return created, knownTime(time.Unix(sec, nsec))
}

// birthTime asks statx for the creation time. Older kernels and several
// filesystems leave STATX_BTIME out of the returned mask.
func birthTime(path string) Timestamp {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME, &stx); err != nil {
		return Timestamp{Err: err}
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return Timestamp{Err: ErrTimeUnsupported}
	}
	return knownTime(time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)))
}
