//go:build darwin

package fslist

import (
	"io/fs"
	"syscall"
	"time"
)

func platformTimes(_ string, info fs.FileInfo) (created, accessed Timestamp) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Timestamp{Err: ErrTimeUnsupported}, Timestamp{Err: ErrTimeUnsupported}
	}
	csec, cnsec := st.Birthtimespec.Unix()
	asec, ansec := st.Atimespec.Unix()
	return knownTime(time.Unix(csec, cnsec)), knownTime(time.Unix(asec, ansec))
}
