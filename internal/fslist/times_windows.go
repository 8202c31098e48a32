//go:build windows

package fslist

import (
	"io/fs"
	"syscall"
	"time"
)

func platformTimes(_ string, info fs.FileInfo) (created, accessed Timestamp) {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return Timestamp{Err: ErrTimeUnsupported}, Timestamp{Err: ErrTimeUnsupported}
	}
	return knownTime(time.Unix(0, data.CreationTime.Nanoseconds())),
		knownTime(time.Unix(0, data.LastAccessTime.Nanoseconds()))
}
